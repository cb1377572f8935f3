package chatd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kswierk/vox"
)

// Interface compliance check.
var _ vox.Completer = (*Client)(nil)

// Client implements [vox.Completer] against the chat daemon's completion
// endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the daemon base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used to report dropped chunks.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a new chat daemon [Client].
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream returns a [vox.Stream] over the daemon's response to utterance.
// The request is issued on the stream's first Next() call, so connection
// failures surface from Next, never from Stream itself.
func (c *Client) Stream(ctx context.Context, utterance string) (vox.Stream, error) {
	connect := func(ctx context.Context) (io.ReadCloser, error) {
		return c.open(ctx, utterance)
	}
	return newStream(ctx, connect, c.log), nil
}

// open POSTs the utterance and returns the SSE response body.
func (c *Client) open(ctx context.Context, utterance string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, strings.NewReader(utterance))
	if err != nil {
		return nil, fmt.Errorf("chatd: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chatd: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("chatd: HTTP %d: %s", resp.StatusCode, msg)
	}
	return resp.Body, nil
}
