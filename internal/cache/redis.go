package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/tourbooking/config"
	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

type RedisCache struct {
	client       *redis.Client
	toursTTL     time.Duration
	dashboardTTL time.Duration
}

func NewRedisCache(client *redis.Client, toursTTL, dashboardTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:       client,
		toursTTL:     toursTTL,
		dashboardTTL: dashboardTTL,
	}
}

// GetTours returns nil, nil on a cache miss.
func (c *RedisCache) GetTours(ctx context.Context) ([]domain.Tour, error) {
	var tours []domain.Tour
	ok, err := c.getJSON(ctx, toursKey(), &tours)
	if err != nil || !ok {
		return nil, err
	}
	return tours, nil
}

func (c *RedisCache) SetTours(ctx context.Context, tours []domain.Tour) error {
	return c.setJSON(ctx, toursKey(), tours, c.toursTTL)
}

func (c *RedisCache) InvalidateTours(ctx context.Context) error {
	return c.client.Del(ctx, toursKey()).Err()
}

// GetDashboard returns nil, nil on a cache miss.
func (c *RedisCache) GetDashboard(ctx context.Context) (*domain.DashboardStats, error) {
	var stats domain.DashboardStats
	ok, err := c.getJSON(ctx, dashboardKey(), &stats)
	if err != nil || !ok {
		return nil, err
	}
	return &stats, nil
}

func (c *RedisCache) SetDashboard(ctx context.Context, stats *domain.DashboardStats) error {
	return c.setJSON(ctx, dashboardKey(), stats, c.dashboardTTL)
}

func (c *RedisCache) InvalidateDashboard(ctx context.Context) error {
	return c.client.Del(ctx, dashboardKey()).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func toursKey() string {
	return "cache:tours:active"
}

func dashboardKey() string {
	return "cache:dashboard:stats"
}
