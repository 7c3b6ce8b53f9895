package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harun/thakir/internal/config"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the collection as a single string value
type RedisStore struct {
	client *redis.Client
	key    string
	mu     sync.Mutex
}

// OpenRedis connects to Redis and verifies the connection
func OpenRedis(cfg config.RedisConfig) (*RedisStore, error) {
	dialTimeout, err := parseTimeout(cfg.DialTimeout, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := parseTimeout(cfg.ReadTimeout, 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := parseTimeout(cfg.WriteTimeout, 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		key:    redisKey(cfg.Prefix),
	}, nil
}

// Backend returns the backend name
func (s *RedisStore) Backend() string {
	return BackendRedis
}

// Load reads the stored collection
func (s *RedisStore) Load(ctx context.Context) []reminder.StudySession {
	return traceLoad(ctx, BackendRedis, func(ctx context.Context) []reminder.StudySession {
		data, err := s.client.Get(ctx, s.key).Bytes()
		if errors.Is(err, redis.Nil) {
			return []reminder.StudySession{}
		}
		if err != nil {
			return loadFailed(BackendRedis, err)
		}

		return decode(BackendRedis, data)
	})
}

// Save overwrites the stored collection with a single SET
func (s *RedisStore) Save(ctx context.Context, sessions []reminder.StudySession) error {
	return traceSave(ctx, BackendRedis, len(sessions), func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		data, err := encode(sessions)
		if err != nil {
			return err
		}

		if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
			return fmt.Errorf("failed to write sessions: %w", err)
		}

		return nil
	})
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(prefix string) string {
	if prefix == "" {
		prefix = "thakir"
	}
	return prefix + ":sessions-v2"
}

func parseTimeout(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
