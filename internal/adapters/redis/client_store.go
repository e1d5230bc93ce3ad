package redis

// Package redis provides Redis-based adapters for the ePharmacy gateway.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/epharmacy/locator-web/internal/ports"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "client:"

// ClientStore is a Redis-based client state store for production use.
// Each client is one hash; every write resets the hash TTL to the ttl it was
// given, so idle clients expire without a reaper.
type ClientStore struct {
	client redis.UniversalClient
	prefix string
}

// NewClientStore creates a Redis client store with the default key prefix.
func NewClientStore(client redis.UniversalClient) *ClientStore {
	return NewClientStoreWithPrefix(client, defaultPrefix)
}

// NewClientStoreWithPrefix creates a Redis client store with a custom key prefix.
func NewClientStoreWithPrefix(client redis.UniversalClient, prefix string) *ClientStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &ClientStore{
		client: client,
		prefix: prefix,
	}
}

func (s *ClientStore) hashKey(clientID string) string {
	return s.prefix + clientID
}

func (s *ClientStore) Get(ctx context.Context, clientID, key string) (string, error) {
	if clientID == "" {
		return "", ports.ErrNotFound
	}

	val, err := s.client.HGet(ctx, s.hashKey(clientID), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ports.ErrNotFound
		}
		return "", fmt.Errorf("redis hget: %w", err)
	}
	return val, nil
}

func (s *ClientStore) Set(ctx context.Context, clientID, key, value string, ttl time.Duration) error {
	if clientID == "" {
		return errors.New("client ID cannot be empty")
	}

	hk := s.hashKey(clientID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hk, key, value)
		if ttl > 0 {
			pipe.Expire(ctx, hk, ttl)
		} else {
			pipe.Persist(ctx, hk)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *ClientStore) Delete(ctx context.Context, clientID string, keys ...string) error {
	if clientID == "" || len(keys) == 0 {
		return nil // Nothing to delete
	}

	if err := s.client.HDel(ctx, s.hashKey(clientID), keys...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

// Ping checks connectivity to Redis.
func (s *ClientStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
