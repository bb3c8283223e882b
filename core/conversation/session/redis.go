package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/docbot/core/logger"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "docbot:session:"

// RedisOptions configures the Redis repository.
type RedisOptions struct {
	Prefix string
	// TTL is refreshed on every Get of a new record, Set and Touch; 0 disables expiry.
	TTL time.Duration
}

// Redis stores sessions as JSON values so several bot instances can share them.
// Get returns a decoded copy; changes must be written back with Set.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Repository = (*Redis)(nil)

// NewRedis creates a repository on top of an existing client.
func NewRedis(client *redis.Client, opts RedisOptions) *Redis {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis parses the URL, connects and verifies the server is reachable.
func DialRedis(ctx context.Context, redisURL string, opts RedisOptions) (*Redis, error) {
	ro, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(ro)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedis(client, opts), nil
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Get loads the record for key, storing an empty one first when none exists.
func (r *Redis) Get(ctx context.Context, key string) (*Session, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		s := &Session{}
		if err := r.Set(ctx, key, s); err != nil {
			return nil, err
		}
		logger.Debug(ctx, "service.sessions", "session.created",
			slog.String("session_key", key),
			slog.String("backend", "redis"),
			slog.String("cache", "miss"),
		)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Set replaces the stored record and refreshes its TTL.
func (r *Redis) Set(ctx context.Context, key string, s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear deletes the record; missing keys are not an error.
func (r *Redis) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Touch extends the TTL of an existing record.
func (r *Redis) Touch(ctx context.Context, key string) error {
	if r.ttl <= 0 {
		return nil
	}
	if err := r.client.Expire(ctx, r.key(key), r.ttl).Err(); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// Count scans the key space under the repository prefix.
func (r *Redis) Count(ctx context.Context) (int, error) {
	n := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// Ping checks if Redis is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
