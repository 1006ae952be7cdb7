package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erp/syncbridge/internal/domain/bridge"
)

// RedisProcessedStore implements ProcessedOrderStore using Redis.
// This is suitable when the processed-order memory should survive
// bridge restarts.
type RedisProcessedStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisProcessedStore creates a new Redis-based processed-order store
func NewRedisProcessedStore(cfg RedisConfig) (*RedisProcessedStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisProcessedStore{
		client:    client,
		keyPrefix: "bridge:order:processed:",
	}, nil
}

// NewRedisProcessedStoreWithClient creates a store with an existing Redis
// client. This is useful for testing or when sharing a client across
// components.
func NewRedisProcessedStoreWithClient(client *redis.Client, keyPrefix string) *RedisProcessedStore {
	if keyPrefix == "" {
		keyPrefix = "bridge:order:processed:"
	}
	return &RedisProcessedStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records a terminal order id with a TTL.
// Returns true if the id was newly recorded, false if it was already present.
// Uses SETNX (SET if Not eXists) for atomic operation.
func (s *RedisProcessedStore) MarkProcessed(ctx context.Context, orderID string, ttl time.Duration) (bool, error) {
	key := s.keyPrefix + orderID

	result, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark order as processed: %w", err)
	}

	return result, nil
}

// IsProcessed returns true if the order id was already recorded
func (s *RedisProcessedStore) IsProcessed(ctx context.Context, orderID string) (bool, error) {
	key := s.keyPrefix + orderID

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if order is processed: %w", err)
	}

	return exists > 0, nil
}

// Close closes the Redis client
func (s *RedisProcessedStore) Close() error {
	return s.client.Close()
}

// Ensure RedisProcessedStore implements ProcessedOrderStore
var _ bridge.ProcessedOrderStore = (*RedisProcessedStore)(nil)
