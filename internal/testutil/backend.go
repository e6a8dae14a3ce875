// Package testutil provides a scripted document backend and page assertions
// for controller tests.
package testutil

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Call is one request the backend received.
type Call struct {
	Method      string
	Path        string
	Vars        map[string]string
	ContentType string
	RequestID   string
	// FileField, FileName and FileData are set for multipart uploads.
	FileField string
	FileName  string
	FileData  []byte
	// Body is the raw body of non-multipart requests.
	Body []byte
}

// Reply is a scripted response.
type Reply struct {
	Status      int
	ContentType string
	Body        string
	// Hold, when set, delays the reply until it is closed or the client
	// gives up on the request.
	Hold <-chan struct{}
}

// JSONReply scripts a JSON response.
func JSONReply(status int, v any) Reply {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Reply{Status: status, ContentType: "application/json", Body: string(b)}
}

// TextReply scripts a plain text response.
func TextReply(status int, text string) Reply {
	return Reply{Status: status, ContentType: "text/plain; charset=utf-8", Body: text}
}

// Backend is an httptest server speaking the portal's upload/verify routes.
// Replies are queued per path and consumed in order; the last reply for a
// path repeats once the queue is down to one.
type Backend struct {
	*httptest.Server

	mu      sync.Mutex
	calls   []Call
	replies map[string][]Reply
}

// NewBackend starts a backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{replies: make(map[string][]Reply)}
	r := mux.NewRouter()
	r.HandleFunc("/upload/{hash}", b.handle).Methods(http.MethodPost)
	r.HandleFunc("/verify/{hash}", b.handle).Methods(http.MethodPost)
	r.HandleFunc("/{component}/{id}", b.handle).Methods(http.MethodPost)
	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// Reply queues replies for path.
func (b *Backend) Reply(path string, replies ...Reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[path] = append(b.replies[path], replies...)
}

// Calls returns the requests received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

func (b *Backend) handle(w http.ResponseWriter, r *http.Request) {
	call := Call{
		Method:      r.Method,
		Path:        r.URL.Path,
		Vars:        mux.Vars(r),
		ContentType: r.Header.Get("Content-Type"),
		RequestID:   r.Header.Get("X-Request-ID"),
	}
	mediaType, _, _ := mime.ParseMediaType(call.ContentType)
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "bad multipart body: "+err.Error(), http.StatusBadRequest)
			return
		}
		for field, headers := range r.MultipartForm.File {
			if len(headers) == 0 {
				continue
			}
			call.FileField = field
			call.FileName = headers[0].Filename
			f, err := headers[0].Open()
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			call.FileData, _ = io.ReadAll(f)
			f.Close()
			break
		}
	} else {
		call.Body, _ = io.ReadAll(r.Body)
	}

	b.mu.Lock()
	b.calls = append(b.calls, call)
	reply, ok := b.next(r.URL.Path)
	b.mu.Unlock()

	if !ok {
		http.Error(w, "no reply scripted for "+r.URL.Path, http.StatusNotFound)
		return
	}
	if reply.Hold != nil {
		select {
		case <-reply.Hold:
		case <-r.Context().Done():
			return
		}
	}
	if reply.ContentType != "" {
		w.Header().Set("Content-Type", reply.ContentType)
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply.Body)
}

func (b *Backend) next(path string) (Reply, bool) {
	q := b.replies[path]
	if len(q) == 0 {
		return Reply{}, false
	}
	if len(q) > 1 {
		b.replies[path] = q[1:]
	}
	return q[0], true
}
