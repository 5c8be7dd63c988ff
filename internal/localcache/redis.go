package localcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/go-redis/redis/v8"
)

const maxTxAttempts = 5

// RedisStore keeps the list under one Redis key. Concurrent appends from several
// instances are reconciled with WATCH/MULTI and retried on conflict.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Append(ctx context.Context, entry *models.WaitlistEntry) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, s.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		updated, err := appendEncoded(raw, entry)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, updated, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("local cache: redis append: %w", err)
		}
		return nil
	}

	return fmt.Errorf("local cache: redis append: %w", redis.TxFailedErr)
}

func (s *RedisStore) Entries(ctx context.Context) ([]models.WaitlistEntry, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.WaitlistEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("local cache: redis read: %w", err)
	}
	return decode(raw)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
