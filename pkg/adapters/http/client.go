package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
)

// DefaultTimeout bounds every backend request.
const DefaultTimeout = 10 * time.Second

// Client is a ports.Backend speaking JSON to the conversational backend.
// Every non-2xx response or transport fault is reported as domain.ErrUnavailable.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ ports.Backend = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout. A client passed through
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithClientLogger configures the structured logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a backend client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Message(ctx context.Context, req domain.MessageRequest) (*domain.MessageResponse, error) {
	var resp domain.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/message", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) StoreMemory(ctx context.Context, req domain.MemoryStoreRequest) error {
	return c.do(ctx, http.MethodPost, "/memory/store", req, nil)
}

func (c *Client) FetchMemory(ctx context.Context, req domain.MemoryFetchRequest) (*domain.MemoryFetchResponse, error) {
	var resp domain.MemoryFetchResponse
	if err := c.do(ctx, http.MethodPost, "/memory/fetch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Carousel(ctx context.Context, q domain.CarouselQuery) ([]domain.Card, error) {
	params := url.Values{}
	params.Set("goal", q.Goal)
	params.Set("age", q.Age)
	params.Set("habits", q.Habits)

	var cards []domain.Card
	if err := c.do(ctx, http.MethodGet, "/carousel?"+params.Encode(), nil, &cards); err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	return cards, nil
}

func (c *Client) Recommend(ctx context.Context, req domain.RecommendRequest) (*domain.Recommendation, error) {
	var resp domain.Recommendation
	if err := c.do(ctx, http.MethodPost, "/recommend", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrUnavailable, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%w: %s %s: status %d", domain.ErrUnavailable, method, path, resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s %s: malformed response: %w", domain.ErrUnavailable, method, path, err)
	}
	return nil
}
