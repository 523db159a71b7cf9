// Package apiclient is the single place that knows the blog API's base
// address and how credentials are attached to outgoing requests.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/blogster/blogster-client/internal/session"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultAuthHeader = "Authorization"
	DefaultAuthScheme = "Bearer"
	RequestIDHeader   = "X-Request-ID"
)

// SessionSource is consulted before every request.
type SessionSource interface {
	Current(ctx context.Context) (session.Session, bool)
}

// Observer is told about every completed or failed call. status is 0 when
// no response was received.
type Observer func(method, path string, status int, d time.Duration)

type Client struct {
	baseURL    string
	http       *http.Client
	sessions   SessionSource
	authHeader string
	authScheme string
	log        *slog.Logger
	observe    Observer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithAuth sets the header and scheme used for the token. An empty scheme
// sends the bare token.
func WithAuth(header, scheme string) Option {
	return func(c *Client) {
		if header != "" {
			c.authHeader = header
		}
		c.authScheme = scheme
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

func New(baseURL string, sessions SessionSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: DefaultTimeout},
		sessions:   sessions,
		authHeader: DefaultAuthHeader,
		authScheme: DefaultAuthScheme,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one request. body is JSON encoded when non-nil; the response is
// decoded into out when out is non-nil and the body is not empty. Failures
// are *NetworkError, *HTTPError or *DecodeError. Nothing is retried.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, requestID(ctx))
	c.authorize(ctx, req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.finish(method, path, 0, start, err)
		return &NetworkError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.finish(method, path, resp.StatusCode, start, err)
		return &NetworkError{Method: method, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	c.finish(method, path, resp.StatusCode, start, nil)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &HTTPError{
			Status:  resp.StatusCode,
			Body:    string(data),
			Message: errorMessage(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Err: err, Body: string(data)}
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.sessions == nil {
		return
	}
	sess, ok := c.sessions.Current(ctx)
	if !ok {
		return
	}
	value := sess.Token
	if c.authScheme != "" {
		value = c.authScheme + " " + sess.Token
	}
	req.Header.Set(c.authHeader, value)
}

func (c *Client) finish(method, path string, status int, start time.Time, err error) {
	d := time.Since(start)
	if err != nil {
		c.log.Warn("api call failed", "method", method, "path", path, "status", status, "duration_ms", d.Milliseconds(), "error", err)
	} else {
		c.log.Debug("api call", "method", method, "path", path, "status", status, "duration_ms", d.Milliseconds())
	}
	if c.observe != nil {
		c.observe(method, path, status, d)
	}
}

// requestID reuses the inbound chi request id so web and API logs line up.
func requestID(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
