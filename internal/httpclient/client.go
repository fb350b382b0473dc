package httpclient

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-querystring/query"
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// MinInterval is the minimum gap between two requests.
	MinInterval time.Duration
}

// Client fetches HTML pages from one site, spacing requests at least
// MinInterval apart.
type Client struct {
	baseURL string
	http    *resty.Client

	minInterval time.Duration
	paceMu      sync.Mutex
	last        time.Time
}

// New creates a new paced HTTP client.
func New(opts Options) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		minInterval: opts.MinInterval,
	}

	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return c.wait(req.Context())
	})
	c.http = client
	return c
}

// BaseURL returns the base URL used for relative paths.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetText performs a GET and returns the body. path may be absolute or relative to
// the base URL; params, when non-nil, is encoded with `url` struct tags.
func (c *Client) GetText(ctx context.Context, path string, params interface{}) (string, error) {
	target := c.Resolve(path)

	req := c.http.R().SetContext(ctx)
	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return "", fmt.Errorf("failed to encode query parameters: %w", err)
		}
		req.SetQueryParamsFromValues(v)
	}

	res, err := req.Get(target)
	if err != nil {
		return "", fmt.Errorf("failed to execute request %s: %w", target, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("request %s failed: status %d", target, res.StatusCode())
	}
	return res.String(), nil
}

// Resolve turns a relative path into an absolute URL on the base URL.
func (c *Client) Resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL() + path
}

func (c *Client) wait(ctx context.Context) error {
	c.paceMu.Lock()
	defer c.paceMu.Unlock()

	if c.minInterval > 0 && !c.last.IsZero() {
		if d := c.minInterval - time.Since(c.last); d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	c.last = time.Now()
	return nil
}
