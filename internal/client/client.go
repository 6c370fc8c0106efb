// Package client talks to the Intega REST API through the query cache and
// the mutation dispatcher.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/mutation"
	"github.com/intega/platform/internal/query"
)

const apiPrefix = "/api/v1"

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	http       *http.Client
	cache      *query.Cache
	dispatcher *mutation.Dispatcher
	logger     *slog.Logger

	mu      sync.RWMutex
	session models.SessionTokens
}

// Option customises a Client.
type Option func(*settings)

type settings struct {
	httpClient *http.Client
	timeout    time.Duration
	notifier   mutation.Notifier
	staleTime  time.Duration
	session    models.SessionTokens
	logger     *slog.Logger
}

// WithHTTPClient replaces the underlying HTTP client. A missing cookie jar is
// added.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithTimeout bounds every request. Requests are unbounded by default.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithNotifier receives mutation outcomes.
func WithNotifier(n mutation.Notifier) Option {
	return func(s *settings) { s.notifier = n }
}

// WithStaleTime overrides how long cached query data counts as fresh.
func WithStaleTime(d time.Duration) Option {
	return func(s *settings) { s.staleTime = d }
}

// WithSession resumes a previously issued session.
func WithSession(tokens models.SessionTokens) Option {
	return func(s *settings) { s.session = tokens }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// New builds a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}

	s := settings{staleTime: query.DefaultStaleTime}
	for _, opt := range opts {
		opt(&s)
	}

	hc := s.httpClient
	if hc == nil {
		hc = &http.Client{}
	} else {
		copied := *hc
		hc = &copied
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc.Jar = jar
	}
	if s.timeout > 0 {
		hc.Timeout = s.timeout
	}
	logger := s.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cache := query.NewCache(s.staleTime)
	dispatcher, err := mutation.NewDispatcher(mutation.DefaultGraph(), query.RegisteredKeys(), cache, s.notifier)
	if err != nil {
		cache.Close()
		return nil, err
	}

	return &Client{
		baseURL:    u.String() + apiPrefix,
		http:       hc,
		cache:      cache,
		dispatcher: dispatcher,
		logger:     logger,
		session:    s.session,
	}, nil
}

// Cache exposes the query cache for snapshot reads.
func (c *Client) Cache() *query.Cache { return c.cache }

// Session returns the tokens from the last sign-up, login or refresh.
func (c *Client) Session() models.SessionTokens {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Close waits for background revalidations to finish.
func (c *Client) Close() { c.cache.Close() }

func (c *Client) setSession(tokens models.SessionTokens) {
	c.mu.Lock()
	c.session = tokens
	c.mu.Unlock()
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.AccessToken
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// doJSON sends body as JSON (when non-nil) and decodes a JSON response into out
// (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	resp, err := c.send(ctx, method, path, contentType, reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	target := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	c.logger.Debug("request completed", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp, nil
}

func apiError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Message = body.Error
		apiErr.Fields = body.Fields
	}
	return apiErr
}

func decodeResponse(resp *http.Response, out any) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return fmt.Errorf("%w: unexpected content type %q", ErrInvalidResponse, resp.Header.Get("Content-Type"))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrInvalidResponse)
		}
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
