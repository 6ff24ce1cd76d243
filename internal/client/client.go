package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 64 << 10

// Client calls the paperless HTTP API on behalf of a session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// New creates a client for the server at baseURL (scheme and host, no /api).
func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		session:    session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	// anonymous calls (login, register) never purge the session on 401.
	anonymous bool
	// root paths are relative to the server root rather than /api.
	root bool
}

func (c *Client) url(r request) string {
	if r.root {
		return c.baseURL + r.path
	}
	return c.baseURL + "/api" + r.path
}

// send performs r and returns the response for statuses below 400. The
// caller closes the body.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.url(r), r.body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token := c.session.Token(); token != "" && !r.anonymous {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(ctx, r, err)
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := decodeError(resp)
	if resp.StatusCode == http.StatusUnauthorized && !r.anonymous {
		apiErr.expired = true
		_ = c.session.Purge()
	}
	return nil, apiErr
}

// do performs r and decodes a JSON response into out when out is not nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

func transportErr(ctx context.Context, r request, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %s %s", ErrTimeout, r.method, r.path)
	default:
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, r.method, r.path, err)
	}
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Code    string `json:"code"`
		Details string `json:"details"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
		apiErr.Details = body.Details
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.ToLower(http.StatusText(resp.StatusCode))
	}
	return apiErr
}
