// Package valkey provides a Valkey-backed cache implementation for deployments
// that share discovery and rate-limit state across multiple instances.
package valkey

import (
	"context"
	"fmt"
	"net"
	"time"

	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/MahdiBaghbani/ocmgate/internal/cache"
	"github.com/MahdiBaghbani/ocmgate/internal/cfg"
)

func init() {
	cache.RegisterDriver("valkey", func(config map[string]any) (cache.Cache, error) {
		var c Config
		if err := cfg.Decode(config, &c); err != nil {
			return nil, err
		}
		return New(&c)
	})
}

// Config holds the [cache.drivers.valkey] section.
type Config struct {
	Addr               string `mapstructure:"addr"`
	Password           string `mapstructure:"password"`
	DB                 int    `mapstructure:"db"`
	DialTimeoutSeconds int    `mapstructure:"dial_timeout_seconds"`
}

// ApplyDefaults implements cfg.Setter.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.DialTimeoutSeconds <= 0 {
		c.DialTimeoutSeconds = 5
	}
}

// Cache is a Valkey-backed cache with TTL support.
type Cache struct {
	client valkeygo.Client
}

// New connects to the configured Valkey server and verifies reachability
// with a PING so misconfiguration surfaces at startup, not first use.
func New(c *Config) (*Cache, error) {
	c.ApplyDefaults()

	client, err := valkeygo.NewClient(valkeygo.ClientOption{
		InitAddress:  []string{c.Addr},
		Password:     c.Password,
		SelectDB:     c.DB,
		DisableCache: true,
		Dialer:       net.Dialer{Timeout: time.Duration(c.DialTimeoutSeconds) * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.DialTimeoutSeconds)*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey health check: %w", err)
	}

	return &Cache{client: client}, nil
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkeygo.IsValkeyNil(err) {
			return nil, cache.ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

// Set stores a value with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = cache.TTLDiscovery
	}
	cmd := c.client.B().Set().Key(key).Value(valkeygo.BinaryString(value)).Ex(ttl).Build()
	return c.client.Do(ctx, cmd).Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
}

// Exists checks if a key exists.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Do(ctx, c.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Increment adds delta to a counter and returns the new value. EXPIRE NX
// applies the TTL only when the key has none, so the first increment opens
// the window, later increments do not extend it, and a key that somehow
// lost its TTL gets one on the next increment instead of living forever.
func (c *Cache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if ttl == 0 {
		ttl = cache.TTLRateLimit
	}

	n, err := c.client.Do(ctx, c.client.B().Incrby().Key(key).Increment(delta).Build()).AsInt64()
	if err != nil {
		return 0, err
	}
	expire := c.client.B().Expire().Key(key).Seconds(int64(ttl / time.Second)).Nx().Build()
	if err := c.client.Do(ctx, expire).Error(); err != nil {
		// A counter with no TTL never resets and would rate-limit its
		// client indefinitely. Drop it rather than leave it stuck.
		c.client.Do(ctx, c.client.B().Del().Key(key).Build())
		return 0, err
	}
	return n, nil
}

// GetCount returns the current counter value. Returns 0 if not found.
func (c *Cache) GetCount(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsInt64()
	if err != nil {
		if valkeygo.IsValkeyNil(err) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Reset removes a counter.
func (c *Cache) Reset(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
}

// Close releases the client connection.
func (c *Cache) Close() error {
	c.client.Close()
	return nil
}

// Ensure Cache implements CacheWithCounter.
var _ cache.CacheWithCounter = (*Cache)(nil)
