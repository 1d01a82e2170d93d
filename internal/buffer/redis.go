package buffer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marshee-ai/marshee/internal/backoff"
)

const (
	chatKeyPrefix     = "chat:"
	activityKeyPrefix = "activity:"
	claimKeyPrefix    = "flushing:"
)

// RedisStore keeps session buffers in Redis lists with a sliding TTL.
// Turns are LPUSHed newest-first and reversed on read.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	ready  bool
}

// RedisConfig controls RedisStore construction.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	TTL      time.Duration
}

// NewRedisStore connects to Redis with bounded retry. When all attempts fail
// the store is returned in a permanently disabled state instead of an error:
// the rest of the system runs with reduced context quality.
func NewRedisStore(ctx context.Context, cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	s := &RedisStore{client: client, ttl: cfg.TTL}
	err := backoff.Retry(ctx, backoff.DefaultPolicy(), 3, func(int) error {
		return client.Ping(ctx).Err()
	})
	s.ready = err == nil
	return s
}

func chatKey(userID string) string     { return chatKeyPrefix + userID }
func activityKey(userID string) string { return activityKeyPrefix + userID }
func claimKey(userID string) string    { return claimKeyPrefix + userID }

func (s *RedisStore) Append(ctx context.Context, userID string, turn Turn) (int, error) {
	payload, err := json.Marshal(turn)
	if err != nil {
		return 0, fmt.Errorf("encode turn: %w", err)
	}

	pipe := s.client.TxPipeline()
	push := pipe.LPush(ctx, chatKey(userID), payload)
	pipe.Set(ctx, activityKey(userID), strconv.FormatInt(time.Now().Unix(), 10), s.ttl)
	pipe.Expire(ctx, chatKey(userID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("append turn: %w", err)
	}
	return int(push.Val()), nil
}

func (s *RedisStore) Read(ctx context.Context, userID string) ([]Turn, error) {
	raw, err := s.client.LRange(ctx, chatKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read buffer: %w", err)
	}
	turns := make([]Turn, 0, len(raw))
	// Newest-first in storage; walk backwards for chronological order.
	for i := len(raw) - 1; i >= 0; i-- {
		var t Turn
		if err := json.Unmarshal([]byte(raw[i]), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *RedisStore) Count(ctx context.Context, userID string) (int, error) {
	n, err := s.client.LLen(ctx, chatKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count buffer: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, chatKey(userID))
	pipe.Del(ctx, activityKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clear buffer: %w", err)
	}
	return nil
}

func (s *RedisStore) IdleUsers(ctx context.Context, olderThan time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	var users []string
	iter := s.client.Scan(ctx, 0, activityKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := s.client.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		last, err := strconv.ParseInt(val, 10, 64)
		if err != nil || last > cutoff {
			continue
		}
		users = append(users, strings.TrimPrefix(key, activityKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return users, fmt.Errorf("scan activity keys: %w", err)
	}
	return users, nil
}

func (s *RedisStore) AcquireClaim(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, claimKey(userID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire claim: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) ReleaseClaim(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, claimKey(userID)).Err(); err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}

func (s *RedisStore) Ready() bool { return s.ready }

func (s *RedisStore) Close() error { return s.client.Close() }
