// Package kv implements the key-value-store lookup variant against a
// Redis-compatible backend, storing each record as a Redis hash keyed by the
// lookup key.
package kv

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"piper/internal/funcs"
	"piper/internal/value"
)

// Config configures a Source.
type Config struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix is prepended to every lookup key before the HGETALL, e.g.
	// "customer:" for keys stored at "customer:<id>".
	KeyPrefix string
}

type Source struct {
	name   string
	client *redis.Client
	prefix string
}

func New(name string, cfg Config) *Source {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Source{name: name, client: client, prefix: cfg.KeyPrefix}
}

func (s *Source) Name() string { return s.name }

func (s *Source) Get(ctx context.Context, key value.Value) ([]value.Value, error) {
	redisKey := s.prefix + funcs.Stringify(key)
	fields, err := s.client.HGetAll(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("kv: HGETALL %s: %w", redisKey, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	m := make(map[string]value.Value, len(fields))
	order := make([]string, 0, len(fields))
	for k, v := range fields {
		m[k] = value.String(v)
		order = append(order, k)
	}
	return []value.Value{value.Map(m, order)}, nil
}

func (s *Source) Close() error { return s.client.Close() }
