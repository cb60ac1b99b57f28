// Package fetch retrieves JSON:API documents from catalogue providers
package fetch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 10 * time.Second
	MediaType      = "application/vnd.api+json"
)

// Client is an HTTP fetcher that never fails: callers always get the best
// body available, which may be an error document or nothing at all.
type Client struct {
	http   *http.Client
	logger zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds every request. It replaces the client's own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		h := *c.http
		h.Timeout = d
		c.http = &h
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch GETs endpoint and returns the response body. Non-2xx responses return
// their body too; transport failures return nil.
func (c *Client) Fetch(ctx context.Context, endpoint string) []byte {
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("fetch failed")
		return nil
	}

	body, err := readAndClose(resp.Body)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("read body failed")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("body", snippet(body, 300)).
			Msg("fetch returned error status")
	}

	return body
}

// StatusCode returns the HTTP status of endpoint, or 0 when no response arrived
func (c *Client) StatusCode(ctx context.Context, endpoint string) int {
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("status check failed")
		return 0
	}
	_, _ = readAndClose(resp.Body)
	return resp.StatusCode
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", MediaType)
	return c.http.Do(req)
}

// readAndClose always drains the body so the connection can be reused
func readAndClose(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
