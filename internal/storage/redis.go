package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ivstanko/cryptoscan/internal/models"
)

const defaultRedisKey = "cryptoscan:performance"

// RedisStore keeps the document under a single key, serialized as JSON.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (*models.PerformanceDocument, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.NewPerformanceDocument(), nil
		}
		return nil, fmt.Errorf("failed to read performance document from redis: %w", err)
	}

	doc := models.NewPerformanceDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse performance document: %w", err)
	}
	if doc.Signals == nil {
		doc.Signals = make(map[string]models.SignalPerformance)
	}
	return doc, nil
}

func (s *RedisStore) Save(ctx context.Context, doc *models.PerformanceDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize performance document: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write performance document to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}
	return nil
}
