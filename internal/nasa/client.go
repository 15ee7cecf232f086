package nasa

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/handiism/ingenuity-dl/internal/model"
	"github.com/handiism/ingenuity-dl/internal/nasa/dto"
)

const (
	// DefaultFeedURL is the public raw images API.
	DefaultFeedURL = "https://mars.nasa.gov/rss/api/"

	// DefaultCategory selects the Ingenuity helicopter cameras.
	DefaultCategory = "ingenuity"
)

// Getter fetches a URL. *http.Client from internal/http satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Client queries the raw images feed.
//
// Client resolves sols and fetches image manifests. Feed responses can be
// cached for a short time, so that checking a sol and then fetching its
// manifest costs a single round trip.
//
// Example usage:
//
//	client := nasa.NewClient(http.NewClient(), nasa.WithCache(16, 30*time.Second))
//
//	sol, err := client.ResolveSol(ctx, model.LatestSol)
//	if err != nil {
//	    return err
//	}
//	refs, err := client.FetchImageURLs(ctx, sol)
type Client struct {
	getter   Getter
	feedURL  string
	category string
	cache    *expirable.LRU[string, []byte]
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithFeedURL overrides DefaultFeedURL.
func WithFeedURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.feedURL = u
		}
	}
}

// WithCategory overrides DefaultCategory.
func WithCategory(category string) Option {
	return func(c *Client) {
		if category != "" {
			c.category = category
		}
	}
}

// WithCache keeps up to size feed responses for ttl. A ttl <= 0 disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = expirable.NewLRU[string, []byte](size, nil, ttl)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a feed client that performs requests through getter.
func NewClient(getter Getter, opts ...Option) *Client {
	c := &Client{
		getter:   getter,
		feedURL:  DefaultFeedURL,
		category: DefaultCategory,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// latestURL builds the query for the single most recent image.
func (c *Client) latestURL() (string, error) {
	return c.queryURL("num", "1")
}

// solURL builds the query for every image of a sol.
func (c *Client) solURL(sol model.Sol) (string, error) {
	return c.queryURL("sol", strconv.Itoa(int(sol)))
}

func (c *Client) queryURL(key, value string) (string, error) {
	u, err := url.Parse(c.feedURL)
	if err != nil {
		return "", fmt.Errorf("invalid feed URL %q: %w", c.feedURL, err)
	}
	q := u.Query()
	q.Set("feed", "raw_images")
	q.Set("category", c.category)
	q.Set("feedtype", "json")
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetchFeed performs (or serves from cache) one feed query and parses it.
func (c *Client) fetchFeed(ctx context.Context, feedURL string) (*dto.JSONFeed, error) {
	body, ok := c.cached(feedURL)
	if !ok {
		var err error
		body, err = c.getter.Get(ctx, feedURL)
		if err != nil {
			return nil, fmt.Errorf("%w: querying %s: %w", model.ErrRemoteUnavailable, feedURL, err)
		}
	}

	feed, err := dto.ParseFeed(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrMalformedResponse, feedURL, err)
	}

	if !ok && c.cache != nil {
		c.cache.Add(feedURL, body)
	}
	return feed, nil
}

func (c *Client) cached(feedURL string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok := c.cache.Get(feedURL)
	if ok {
		c.logger.Debug("feed cache hit", "url", feedURL)
	}
	return body, ok
}
