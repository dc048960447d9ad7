// Package redisstore implements storage.Backend on top of Redis.
//
// Each storage key becomes one Redis string under a configurable prefix, e.g.
// "codevault:snippets". Keys never expire: the vault is the source of truth,
// not a cache.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/codevault/internal/storage"
)

// DefaultPrefix namespaces every key the vault writes.
const DefaultPrefix = "codevault:"

var _ storage.Backend = (*Store)(nil)

// Store is a storage.Backend backed by a Redis client.
type Store struct {
	client *redis.Client
	prefix string
}

// New wraps an existing client. The Store owns the client from here on and
// closes it in Close.
func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Options configures Dial.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Dial connects to Redis and verifies the connection with PING.
func Dial(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redisstore: pinging %s: %w", opts.Addr, err)
	}
	return New(client, opts.Prefix), nil
}

// Get returns the value stored under key. redis.Nil means "never set".
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redisstore: getting %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key with no expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redisstore: setting %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
