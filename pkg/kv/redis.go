package kv

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// ClientProvider hands out the current go-redis client. The managed client in
// pkg/redis swaps its connection on reconnect, so the store asks every time.
type ClientProvider interface {
	GetClient() *goredis.Client
}

type staticClient struct {
	client *goredis.Client
}

func (s staticClient) GetClient() *goredis.Client { return s.client }

// RedisStore keeps each key as a plain Redis string without expiry.
type RedisStore struct {
	provider ClientProvider
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store on top of a managed client.
func NewRedisStore(provider ClientProvider) *RedisStore {
	return &RedisStore{provider: provider}
}

// NewRedisStoreFromClient wraps a bare go-redis client.
func NewRedisStoreFromClient(client *goredis.Client) *RedisStore {
	return &RedisStore{provider: staticClient{client: client}}
}

func (r *RedisStore) client() (*goredis.Client, error) {
	client := r.provider.GetClient()
	if client == nil {
		return nil, errors.New("redis client not initialized")
	}
	return client, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return data, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	client, err := r.client()
	if err != nil {
		return err
	}

	if err := client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	client, err := r.client()
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	client := r.provider.GetClient()
	if client == nil {
		return nil
	}
	return client.Close()
}
