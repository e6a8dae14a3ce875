package api

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/harrylevesque/docverify/internal/transport"
	"github.com/harrylevesque/docverify/internal/utils"
)

// StaticHandler serves dir under /public/.
func StaticHandler(dir string) http.Handler {
	if dir == "" {
		dir = utils.GetPublicDir()
	}
	return http.StripPrefix("/public/", http.FileServer(http.Dir(dir)))
}

// ProxyHandler forwards requests to backend unchanged. An unreachable
// backend yields 502 with a plain text body, which the controller renders
// like any other failure.
func ProxyHandler(backend *url.URL, logger *utils.Logger) http.Handler {
	p := httputil.NewSingleHostReverseProxy(backend)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("backend unreachable",
			"path", r.URL.Path, "request_id", r.Header.Get(transport.RequestIDHeader), "error", err)
		http.Error(w, "backend unavailable", http.StatusBadGateway)
	}
	return p
}

// RequestIDMiddleware gives every request an X-Request-ID, keeping one the
// client already sent, and echoes it on the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(transport.RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
			r.Header.Set(transport.RequestIDHeader, id)
		}
		w.Header().Set(transport.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(logger *utils.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String(),
				"request_id", r.Header.Get(transport.RequestIDHeader))
		})
	}
}
