package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobalert/internal/model"
)

var _ model.StateStore = (*RedisStore)(nil)

const defaultRedisPrefix = "jobalert:"

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// RedisStore keeps each state blob as a JSON string under a namespaced key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore parses redisURL, verifies connectivity and namespaces every
// key with prefix (default "jobalert:").
func NewRedisStore(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// List returns the names directly below path.
func (s *RedisStore) List(ctx context.Context, path string) ([]string, error) {
	match := globEscaper.Replace(s.prefix+path+"/") + "*"

	var keys []string
	iter := s.client.Scan(ctx, 0, match, 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	return childNames(path, keys), nil
}

// Read returns the values stored at key, or ok=false if the key does not exist.
func (s *RedisStore) Read(ctx context.Context, key string) ([]string, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	values, err := decode(key, data)
	if err != nil {
		return nil, false, err
	}
	return values, true, nil
}

// Write replaces the values stored at key. Keys never expire.
func (s *RedisStore) Write(ctx context.Context, key string, values []string) error {
	data, err := encode(values)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
