package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/harrylevesque/docverify/internal/utils"
)

// NewRouter returns the page host. It answers /health, serves staticDir
// under /public/ and forwards every other request to backend so the page and
// its controller share one origin.
func NewRouter(staticDir string, backend *url.URL, logger *utils.Logger) *mux.Router {
	if logger == nil {
		logger = utils.NopLogger()
	}
	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, LoggingMiddleware(logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintln(w, "OK"); err != nil {
			logger.Warn("health write failed", "error", err)
		}
	}).Methods("GET")
	r.PathPrefix("/public/").Handler(StaticHandler(staticDir)).Methods("GET", "HEAD")
	r.PathPrefix("/").Handler(ProxyHandler(backend, logger))
	return r
}
