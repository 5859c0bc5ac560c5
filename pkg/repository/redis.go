package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/pharmacart/pkg/config"
	"github.com/example/pharmacart/pkg/models"
	"github.com/go-redis/redis/v8"
)

const productCacheTTL = 30 * time.Second

type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// Product search cache, keyed by the stock floor.

func (r *RedisRepository) GetProducts(ctx context.Context, minStock int) ([]models.Product, error) {
	key := fmt.Sprintf("products:min_stock:%d", minStock)
	var products []models.Product
	if err := r.GetJSON(ctx, key, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *RedisRepository) SetProducts(ctx context.Context, minStock int, products []models.Product) error {
	key := fmt.Sprintf("products:min_stock:%d", minStock)
	return r.SetJSON(ctx, key, products, productCacheTTL)
}

// Allow implements a fixed one-minute window per client: the first hit in a
// window creates the counter with an expiry, later hits increment it.
func (r *RedisRepository) Allow(ctx context.Context, clientKey string, limit int) (bool, error) {
	window := time.Now().Unix() / 60
	key := fmt.Sprintf("ratelimit:%s:%d", clientKey, window)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		r.client.Expire(ctx, key, time.Minute)
	}
	return count <= int64(limit), nil
}
