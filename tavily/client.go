// Package tavily is a minimal client for the Tavily search API.
package tavily

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hoangvvo/afford-agent/internal/clientutils"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.tavily.com"

var ErrMissingAPIKey = errors.New("tavily: missing API key")

// Client is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// WithRateLimit caps outgoing requests. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one query. It blocks on the rate limiter before sending.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New("tavily: empty query")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("tavily: rate limiter: %w", err)
		}
	}

	resp, err := clientutils.DoJSON[SearchResponse](ctx, c.http, clientutils.JSONRequestConfig{
		URL:  c.baseURL + "/search",
		Body: req,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: search %q: %w", req.Query, err)
	}
	return resp, nil
}
