package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"BitcoinAdvisor/internal/model"
)

// RedisConfig configures the Redis-backed cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache stores JSON-encoded observation slices with a TTL.
type RedisCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// wireObservation keeps the cached JSON independent of model field names.
type wireObservation struct {
	T int64   `json:"t"`
	P float64 `json:"p"`
	V float64 `json:"v,omitempty"`
}

// NewRedisCache connects and pings the server.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	zap.L().Info("redis cache connected", zap.String("addr", cfg.Addr))
	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) Get(ctx context.Context, symbol string, period model.Period) ([]model.Observation, bool, error) {
	raw, err := c.client.Get(ctx, Key(symbol, period)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var wire []wireObservation
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, false, fmt.Errorf("decode cached series: %w", err)
	}
	obs := make([]model.Observation, len(wire))
	for i, w := range wire {
		obs[i] = model.Observation{Time: time.Unix(w.T, 0).UTC(), Price: w.P, Volume: w.V}
	}
	return obs, true, nil
}

func (c *RedisCache) Set(ctx context.Context, symbol string, period model.Period, obs []model.Observation) error {
	wire := make([]wireObservation, len(obs))
	for i, o := range obs {
		wire[i] = wireObservation{T: o.Time.Unix(), P: o.Price, V: o.Volume}
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("encode series: %w", err)
	}
	if err := c.client.Set(ctx, Key(symbol, period), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }

// Open returns a Redis cache when addr is set and reachable, otherwise an
// in-memory cache.
func Open(cfg RedisConfig) SeriesCache {
	if cfg.Addr == "" {
		return NewMemoryCache(cfg.TTL)
	}
	rc, err := NewRedisCache(cfg)
	if err != nil {
		zap.L().Warn("redis unavailable, using in-memory cache", zap.String("addr", cfg.Addr), zap.Error(err))
		return NewMemoryCache(cfg.TTL)
	}
	return rc
}
