// Package api implements the clients for the remote expense API: auth,
// expenses and categories. All failures come back as a classified *Error
// whose message is ready for display.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"expensetrack/internal/cache"
	"expensetrack/internal/core"
	"expensetrack/internal/log"

	"github.com/google/uuid"
)

const (
	headerUserID    = "X-User-Id"
	headerRequestID = "X-Request-Id"

	// Response bodies are small JSON documents; cap reads defensively.
	maxBodyBytes = 4 << 20

	categoriesCacheKey = "categories"
)

// Client talks to the remote expense API. It is safe for concurrent use.
//
// List responses are kept in a short-lived cache so repeated renders do
// not refetch; create and delete keep the cached list in step with the
// server so a deleted record never reappears from cache.
type Client struct {
	baseURL    string
	http       *http.Client
	logger     *log.Logger
	expenses   cache.Cache[[]core.Expense]
	categories cache.Cache[[]core.Category]
}

// Options configures a Client. Zero values get sensible defaults.
type Options struct {
	// BaseURL is the API root, e.g. "http://localhost:8080/api".
	BaseURL string
	// Timeout bounds a whole request/response cycle. Default 30s.
	Timeout time.Duration
	// CacheTTL bounds how long list responses are served from cache.
	// Default 30s.
	CacheTTL time.Duration
	// HTTPClient overrides the pooled default client, mainly for tests.
	HTTPClient *http.Client
	Logger     *log.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Timeout)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		http:       httpClient,
		logger:     logger.WithComponent(log.ComponentAPI),
		expenses:   cache.NewLRU[[]core.Expense](16, opts.CacheTTL),
		categories: cache.NewLRU[[]core.Category](1, opts.CacheTTL),
	}
}

// newHTTPClient builds a pooled HTTP client with conservative timeouts.
func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// do runs one API call: marshal body, send with the scoping headers,
// classify any failure, decode the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, userID core.ID, body, out any) error {
	start := time.Now()
	requestID := uuid.NewString()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return requestError(fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return requestError(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(headerUserID, userID.String())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Request failed",
			log.FieldMethod, method,
			log.FieldPath, path,
			log.FieldRequestID, requestID,
			log.FieldError, err.Error())
		return networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return networkError(err)
	}

	c.logger.Debug("Request completed",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldRequestID, requestID,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return requestError(errors.New("invalid response from server"))
	}
	return nil
}
