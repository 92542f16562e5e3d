package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/MahdiBaghbani/ocmgate/internal/cache"
	"github.com/MahdiBaghbani/ocmgate/internal/cache/memory"
	"github.com/MahdiBaghbani/ocmgate/internal/httpclient"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/spec"
)

// Client fetches and caches remote OCM discovery documents.
// Discovers via /.well-known/ocm with /ocm-provider fallback.
type Client struct {
	httpClient *httpclient.Client
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewClient creates a discovery client. A nil cache is replaced with a
// default in-memory cache.
func NewClient(hc *httpclient.Client, c cache.Cache) *Client {
	if c == nil {
		c = memory.New(cache.TTLDiscovery, 5*time.Minute)
	}
	return &Client{
		httpClient: hc,
		cache:      c,
		cacheTTL:   cache.TTLDiscovery,
	}
}

// Discover fetches the discovery document for a remote OCM server.
// Uses the cache when available.
func (c *Client) Discover(ctx context.Context, baseURL string) (*spec.Discovery, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	cacheKey := "discovery:" + baseURL
	if data, err := c.cache.Get(ctx, cacheKey); err == nil {
		var disc spec.Discovery
		if err := json.Unmarshal(data, &disc); err == nil {
			return &disc, nil
		}
	}

	disc, err := c.fetchDiscovery(ctx, baseURL+"/.well-known/ocm")
	if err != nil {
		disc, err = c.fetchDiscovery(ctx, baseURL+"/ocm-provider")
		if err != nil {
			return nil, fmt.Errorf("failed to discover OCM at %s: %w", baseURL, err)
		}
	}
	if data, err := json.Marshal(disc); err == nil {
		c.cache.Set(ctx, cacheKey, data, c.cacheTTL)
	}

	return disc, nil
}

func (c *Client) fetchDiscovery(ctx context.Context, discoveryURL string) (*spec.Discovery, error) {
	data, resp, err := c.httpClient.GetJSON(ctx, discoveryURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("discovery returned status %d", resp.StatusCode)
	}

	var disc spec.Discovery
	if err := json.Unmarshal(data, &disc); err != nil {
		return nil, fmt.Errorf("invalid discovery JSON: %w", err)
	}

	if !disc.Enabled {
		return nil, fmt.Errorf("OCM is disabled at %s", discoveryURL)
	}

	return &disc, nil
}
