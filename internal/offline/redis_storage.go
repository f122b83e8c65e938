package offline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultRedisPrefix = "tractorlog:cache:"

// RedisStorage keeps each region in one hash keyed by URL and tracks region
// names in a set.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage connects and pings the server before returning.
func NewRedisStorage(addr, password string, db int, logger *zap.Logger) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	if logger != nil {
		logger.Info("connected to redis", zap.String("addr", addr))
	}
	return NewRedisStorageFromClient(client, defaultRedisPrefix), nil
}

// NewRedisStorageFromClient wraps an existing client. All keys start with prefix.
func NewRedisStorageFromClient(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) regionsKey() string {
	return s.prefix + "regions"
}

func (s *RedisStorage) regionKey(region string) string {
	return s.prefix + "region:" + region
}

func (s *RedisStorage) Open(ctx context.Context, region string) error {
	if err := s.client.SAdd(ctx, s.regionsKey(), region).Err(); err != nil {
		return fmt.Errorf("opening region %s: %w", region, err)
	}
	return nil
}

func (s *RedisStorage) Match(ctx context.Context, region, url string) (*Response, error) {
	data, err := s.client.HGet(ctx, s.regionKey(region), url).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	return decodeEntry(data)
}

func (s *RedisStorage) Put(ctx context.Context, region, url string, resp *Response) error {
	data, err := encodeEntry(resp)
	if err != nil {
		return err
	}
	open, err := s.client.SIsMember(ctx, s.regionsKey(), region).Result()
	if err != nil {
		return fmt.Errorf("checking region %s: %w", region, err)
	}
	if !open {
		return fmt.Errorf("%s: %w", region, ErrRegionNotFound)
	}
	if err := s.client.HSet(ctx, s.regionKey(region), url, data).Err(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

func (s *RedisStorage) Regions(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.regionsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("listing cache regions: %w", err)
	}
	return sortedStrings(names), nil
}

func (s *RedisStorage) DeleteRegion(ctx context.Context, region string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, s.regionsKey(), region)
		pipe.Del(ctx, s.regionKey(region))
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting region %s: %w", region, err)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
