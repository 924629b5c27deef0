// Package tips fetches advisory spending tips from an external service.
// Every failure degrades to a fixed fallback sentence.
package tips

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"anggaran/internal/cache"
	"anggaran/internal/core"
	applog "anggaran/internal/log"
)

const (
	DefaultTimeout  = 5 * time.Second
	DefaultCacheTTL = 30 * time.Minute
	cacheSize       = 256
	maxBodyBytes    = 64 << 10
)

// Fallback is the tip shown when the service cannot provide one.
func Fallback(categoryName string) string {
	return fmt.Sprintf("It looks like you're getting close to your budget for %s. Try to review your recent expenses to see where you can save.", categoryName)
}

type request struct {
	CategoryName string  `json:"categoryName"`
	Budget       float64 `json:"budget"`
	Spent        float64 `json:"spent"`
}

type response struct {
	Tip string `json:"tip"`
}

type Client struct {
	url     string
	http    *http.Client
	timeout time.Duration
	cache   *cache.LRUCache[string]
	group   singleflight.Group
	logger  *applog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cache = cache.NewLRUCache[string](cacheSize, ttl)
		}
	}
}

func WithLogger(l *applog.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(applog.ComponentTips) }
}

// NewClient returns a client posting to url. An empty url makes every
// call return the fallback without network access.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:     strings.TrimSpace(url),
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		cache:   cache.NewLRUCache[string](cacheSize, DefaultCacheTTL),
		logger:  applog.FromContext(context.Background()).WithComponent(applog.ComponentTips),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the tip cache so a cache.Manager can sweep it.
func (c *Client) Cache() *cache.LRUCache[string] {
	return c.cache
}

// SpendingTip returns a tip for a category. It never fails: transport
// errors, timeouts, non-2xx answers, malformed bodies and empty tips all
// yield Fallback(name). Only real tips are cached.
func (c *Client) SpendingTip(ctx context.Context, name string, budget, spent core.Money) string {
	if c.url == "" {
		return Fallback(name)
	}
	key := cacheKey(name, budget, spent)
	if tip, ok := c.cache.Get(key); ok {
		return tip
	}

	// The fetch is shared by every waiter, so one caller going away must
	// not cancel it. The client timeout still bounds it.
	v, _, _ := c.group.Do(key, func() (any, error) {
		tip, err := c.fetch(context.WithoutCancel(ctx), request{CategoryName: name, Budget: budget.Float64(), Spent: spent.Float64()})
		if err != nil {
			c.logger.WarnContext(ctx, "Spending tip unavailable, using fallback",
				applog.FieldError, err,
				"category", name)
			return Fallback(name), nil
		}
		c.cache.Set(key, tip)
		return tip, nil
	})
	return v.(string)
}

func (c *Client) fetch(ctx context.Context, body request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call tip service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("tip service returned status %d", resp.StatusCode)
	}
	var out response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	tip := strings.TrimSpace(out.Tip)
	if tip == "" {
		return "", fmt.Errorf("tip service returned an empty tip")
	}
	return tip, nil
}

func cacheKey(name string, budget, spent core.Money) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + budget.Decimal().Round(0).String() + "|" + spent.Decimal().Round(0).String()
}
