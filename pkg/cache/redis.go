package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yair/lineup/pkg/domain"
)

const (
	DefaultTTL = 30 * time.Minute
	keyPrefix  = "recommendations"
)

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RedisCache stores recommendation sets as JSON under
// recommendations:{profile}:{festival}:{catalog version}. A new catalog
// version therefore never reads a set computed from an older timetable.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func Key(key domain.RecommendationKey) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, key.ProfileID, key.FestivalID, key.CatalogVersion)
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key domain.RecommendationKey) (*domain.RecommendationSet, error) {
	data, err := c.client.Get(ctx, Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached recommendations: %w", err)
	}

	var set domain.RecommendationSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to decode cached recommendations: %w", err)
	}
	return &set, nil
}

func (c *RedisCache) Set(ctx context.Context, key domain.RecommendationKey, set *domain.RecommendationSet) error {
	if set == nil {
		return fmt.Errorf("recommendation set cannot be nil")
	}

	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}
	if err := c.client.Set(ctx, Key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache recommendations: %w", err)
	}
	return nil
}

// Invalidate drops every cached version for the profile and festival. An
// empty profile id matches all profiles.
func (c *RedisCache) Invalidate(ctx context.Context, profileID, festivalID string) (int, error) {
	if profileID == "" {
		profileID = "*"
	}
	pattern := fmt.Sprintf("%s:%s:%s:*", keyPrefix, profileID, festivalID)

	deleted := 0
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			n, err := c.client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to invalidate recommendations: %w", err)
			}
			deleted += int(n)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan recommendations: %w", err)
	}
	if len(batch) > 0 {
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to invalidate recommendations: %w", err)
		}
		deleted += int(n)
	}
	return deleted, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(ctx context.Context, key domain.RecommendationKey) (*domain.RecommendationSet, error) {
	return nil, domain.ErrCacheMiss
}

func (NopCache) Set(ctx context.Context, key domain.RecommendationKey, set *domain.RecommendationSet) error {
	return nil
}
