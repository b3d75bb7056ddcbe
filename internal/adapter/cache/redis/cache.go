package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskmanagement/internal/core/port"

	goredis "github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

type redisRepository struct {
	client *goredis.Client
}

func NewRedisRepository(ctx context.Context, cfg Config) (port.CacheRepository, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &redisRepository{client: client}, nil
}

// NewRedisRepositoryWithClient wraps an already configured client.
func NewRedisRepositoryWithClient(client *goredis.Client) port.CacheRepository {
	return &redisRepository{client: client}
}

func (r *redisRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()

	if errors.Is(err, goredis.Nil) {
		return nil, port.ErrCacheMiss
	}

	return value, err
}

func (r *redisRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// DeleteByPrefix walks the keyspace with SCAN so large databases are not
// blocked the way KEYS would block them.
func (r *redisRepository) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()

	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	return r.client.Del(ctx, keys...).Err()
}

func (r *redisRepository) Close() error {
	return r.client.Close()
}
