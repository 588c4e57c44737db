// Package store is the HTTP client for the remote car status store.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/benmeehan/carstatus-relay/internal/models"
	"github.com/rs/zerolog"
)

// RecordStore defines the CRUD operations offered by the remote store.
type RecordStore interface {
	Create(ctx context.Context, record models.StatusRecord) (models.StatusRecord, int, error)
	List(ctx context.Context) ([]models.StatusRecord, int, error)
	Get(ctx context.Context, id string) (models.StatusRecord, int, error)
	Update(ctx context.Context, id string, record models.StatusRecord) (models.StatusRecord, int, error)
	Delete(ctx context.Context, id string) (int, error)
}

// Forwarder sends a request to the store and hands back the raw reply.
type Forwarder interface {
	Forward(ctx context.Context, method, id string, body []byte) (*Reply, error)
}

// Reply is an undecoded response from the remote store.
type Reply struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the reply carries a 2xx status code.
func (r *Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client talks to a single collection endpoint such as .../IoTCarStatus.
// Single records live at <baseURL>/<id>.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A client without its own
// Timeout gets the one passed to NewClient; the caller's client is not modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHeader adds a header to every request, e.g. an Authorization header.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// NewClient creates a Client for the collection at baseURL. Every request is bounded by
// timeout unless a client supplied with WithHTTPClient sets its own.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid store URL %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid store URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"Accept": "application/json",
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Timeout == 0 {
		bounded := *c.httpClient
		bounded.Timeout = timeout
		c.httpClient = &bounded
	}
	return c, nil
}

// BaseURL returns the collection URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Forward performs exactly one request. The returned error is always a
// *NetworkError; any HTTP status, success or not, comes back in the Reply.
func (c *Client) Forward(ctx context.Context, method, id string, body []byte) (*Reply, error) {
	target := c.baseURL
	if id != "" {
		target = c.baseURL + "/" + url.PathEscape(id)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &NetworkError{Op: method, URL: target, Err: err}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("url", target).Msg("Remote store request failed")
		return nil, &NetworkError{Op: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: method, URL: target, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Remote store request completed")

	return &Reply{StatusCode: resp.StatusCode, Body: data}, nil
}

// Create posts a new record. The store assigns its id.
func (c *Client) Create(ctx context.Context, record models.StatusRecord) (models.StatusRecord, int, error) {
	record.ID = ""
	var created models.StatusRecord
	code, err := c.roundTrip(ctx, "create", http.MethodPost, "", record, &created)
	return created, code, err
}

// List fetches every record in the order the store returns them.
func (c *Client) List(ctx context.Context) ([]models.StatusRecord, int, error) {
	var records []models.StatusRecord
	code, err := c.roundTrip(ctx, "list", http.MethodGet, "", nil, &records)
	return records, code, err
}

// Get fetches a single record.
func (c *Client) Get(ctx context.Context, id string) (models.StatusRecord, int, error) {
	var record models.StatusRecord
	code, err := c.roundTrip(ctx, "get", http.MethodGet, id, nil, &record)
	return record, code, err
}

// Update replaces the record with the given id.
func (c *Client) Update(ctx context.Context, id string, record models.StatusRecord) (models.StatusRecord, int, error) {
	var updated models.StatusRecord
	code, err := c.roundTrip(ctx, "update", http.MethodPut, id, record, &updated)
	return updated, code, err
}

// Delete removes the record with the given id.
func (c *Client) Delete(ctx context.Context, id string) (int, error) {
	return c.roundTrip(ctx, "delete", http.MethodDelete, id, nil, nil)
}

// roundTrip encodes in, forwards the request and decodes a success body into out.
// A status code of zero means no response was obtained.
func (c *Client) roundTrip(ctx context.Context, op, method, id string, in, out any) (int, error) {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("%s: failed to encode record: %w", op, err)
		}
	}

	reply, err := c.Forward(ctx, method, id, body)
	if err != nil {
		return 0, err
	}
	if !reply.OK() {
		return reply.StatusCode, &RemoteError{Op: op, StatusCode: reply.StatusCode, Body: reply.Body}
	}
	if out == nil || len(bytes.TrimSpace(reply.Body)) == 0 {
		return reply.StatusCode, nil
	}
	if err := json.Unmarshal(reply.Body, out); err != nil {
		return reply.StatusCode, &DecodeError{Op: op, Err: err}
	}
	return reply.StatusCode, nil
}
