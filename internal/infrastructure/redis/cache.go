package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Cache adapts a Client to cache.Store behind a circuit breaker.
// While the breaker is open calls fail fast with gobreaker.ErrOpenState.
type Cache struct {
	client *Client
	prefix string
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewCache creates a Redis-backed cache whose keys are namespaced by prefix
func NewCache(client *Client, prefix string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Cache{client: client, prefix: prefix, cb: cb, logger: logger}
}

type lookup struct {
	value []byte
	found bool
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		v, found, err := c.client.GetBytes(ctx, c.prefix+key)
		return lookup{value: v, found: found}, err
	})
	if err != nil {
		return nil, false, err
	}
	l := res.(lookup)
	return l.value, l.found, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.prefix+key, value, ttl)
	})
	return err
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.prefix + k
	}
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Delete(ctx, prefixed...)
	})
	return err
}

// State reports the breaker state for readiness checks
func (c *Cache) State() gobreaker.State {
	return c.cb.State()
}
