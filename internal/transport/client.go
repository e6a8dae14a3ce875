// Package transport issues the one-shot POST requests of the upload/verify
// controller and normalises every outcome into a Result.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrylevesque/docverify/internal/utils"
)

// RequestIDHeader carries a fresh id on every request.
const RequestIDHeader = "X-Request-ID"

const acceptHeader = "application/json, text/plain, */*"

// Client posts to a single backend. An empty base URL yields relative
// requests, which is what the browser build wants.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *utils.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *utils.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  utils.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostMultipart posts body as the single form file field.
func (c *Client) PostMultipart(ctx context.Context, path, field, filename string, body io.Reader) Result {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return failed(fmt.Errorf("create form file: %w", err))
	}
	if _, err := io.Copy(part, body); err != nil {
		return failed(fmt.Errorf("read %s: %w", filename, err))
	}
	if err := w.Close(); err != nil {
		return failed(fmt.Errorf("close multipart body: %w", err))
	}
	return c.post(ctx, path, w.FormDataContentType(), &buf)
}

// PostJSON posts v encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, path string, v any) Result {
	data, err := json.Marshal(v)
	if err != nil {
		return failed(fmt.Errorf("encode request: %w", err))
	}
	return c.post(ctx, path, "application/json", bytes.NewReader(data))
}

// Post posts an empty body.
func (c *Client) Post(ctx context.Context, path string) Result {
	return c.post(ctx, path, "", nil)
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) Result {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return failed(fmt.Errorf("build request: %w", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", acceptHeader)
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "url", url, "request_id", requestID, "error", err)
		return failed(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("reading response failed", "url", url, "request_id", requestID, "error", err)
		return failed(fmt.Errorf("read response: %w", err))
	}
	c.logger.Debug("request completed",
		"url", url,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode >= http.StatusBadRequest {
		return Err{Status: resp.StatusCode, Body: string(b)}
	}
	return Ok{Status: resp.StatusCode, Body: b}
}

func failed(err error) Err {
	return Err{Body: err.Error(), Cause: err}
}
