package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPostMultipart_SendsFileField(t *testing.T) {
	var gotName, gotData, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, h, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName, gotData = h.Filename, string(b)
		gotID = r.Header.Get(RequestIDHeader)
		w.Write([]byte(`{"Message":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	res := c.PostMultipart(context.Background(), "/journalUpdate/j1", "file", "d.txt", strings.NewReader("hello"))

	ok, isOk := res.(Ok)
	if !isOk {
		t.Fatalf("Expected Ok, got %#v", res)
	}
	if string(ok.Body) != `{"Message":"ok"}` {
		t.Errorf("Unexpected body %q", ok.Body)
	}
	if gotName != "d.txt" || gotData != "hello" {
		t.Errorf("Expected d.txt/hello, got %q/%q", gotName, gotData)
	}
	if gotID == "" {
		t.Error("Expected a request id")
	}
}

func TestPostJSON_ContentType(t *testing.T) {
	var gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	res := NewClient(srv.URL).PostJSON(context.Background(), "/verify/j1", map[string]string{"Description": "d"})
	if _, ok := res.(Ok); !ok {
		t.Fatalf("Expected Ok, got %#v", res)
	}
	if gotType != "application/json" {
		t.Errorf("Expected application/json, got %q", gotType)
	}
	if gotBody != `{"Description":"d"}` {
		t.Errorf("Unexpected body %q", gotBody)
	}
}

func TestPost_StatusAtLeast400IsErr(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			t.Errorf("Expected empty body, got length %d", r.ContentLength)
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	res := NewClient(srv.URL).Post(context.Background(), "/verify/abc")
	e, ok := res.(Err)
	if !ok {
		t.Fatalf("Expected Err, got %#v", res)
	}
	if e.Status != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", e.Status)
	}
	if e.Body != "forbidden\n" {
		t.Errorf("Expected body %q, got %q", "forbidden\n", e.Body)
	}
	if e.Cause != nil {
		t.Errorf("Expected no cause for a server error, got %v", e.Cause)
	}
	if !strings.Contains(e.Error(), "403") {
		t.Errorf("Expected status in error text, got %q", e.Error())
	}
}

func TestPost_TransportFailureIsErr(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewClient(url).Post(context.Background(), "/verify/abc")
	e, ok := res.(Err)
	if !ok {
		t.Fatalf("Expected Err, got %#v", res)
	}
	if e.Status != 0 || e.Cause == nil || e.Body == "" {
		t.Errorf("Expected status 0 with a cause and text, got %#v", e)
	}
}

func TestPost_CancelledContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	res := NewClient(srv.URL).Post(ctx, "/verify/abc")
	e, ok := res.(Err)
	if !ok {
		t.Fatalf("Expected Err, got %#v", res)
	}
	if !errors.Is(e, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", e.Cause)
	}
}

func TestWithTimeout(t *testing.T) {
	c := NewClient("http://localhost", WithTimeout(3*time.Second))
	if c.http.Timeout != 3*time.Second {
		t.Errorf("Expected 3s timeout, got %v", c.http.Timeout)
	}
	hc := &http.Client{}
	c = NewClient("http://localhost", WithHTTPClient(hc))
	if c.http != hc {
		t.Error("Expected the supplied http client")
	}
}

func TestErr_Error(t *testing.T) {
	if got := (Err{Status: 500, Body: "server error"}).Error(); got != "Code: 500, Message: server error" {
		t.Errorf("Unexpected text %q", got)
	}
	if got := (Err{Body: "connection refused"}).Error(); got != "transport failure: connection refused" {
		t.Errorf("Unexpected text %q", got)
	}
}
