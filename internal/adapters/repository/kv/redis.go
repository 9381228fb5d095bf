package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisRetries = 16

// RedisStore lets several processes share one layout. Updates are optimistic:
// every key read is WATCHed and the writes go out in MULTI/EXEC, which redis
// aborts when a watched key changed in the meantime.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	maxRetries int
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, maxRetries: defaultRedisRetries}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) watchReader(rtx *redis.Tx) readFunc {
	return func(ctx context.Context, key string) ([]byte, bool, error) {
		if err := rtx.Watch(ctx, s.key(key)).Err(); err != nil {
			return nil, false, fmt.Errorf("failed to watch key %q: %w", key, err)
		}
		value, err := rtx.Get(ctx, s.key(key)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
		}
		return value, true, nil
	}
}

func (s *RedisStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return s.transact(ctx, fn, true)
}

func (s *RedisStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	return s.transact(ctx, fn, false)
}

func (s *RedisStore) transact(ctx context.Context, fn func(tx Tx) error, readOnly bool) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := newStagedTx(s.watchReader(rtx))
			if err := fn(tx); err != nil {
				return err
			}
			if readOnly && tx.dirty() {
				return ErrReadOnly
			}

			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				// keeps EXEC non-empty so a view also fails on concurrent writes
				pipe.Ping(ctx)
				for key, value := range tx.writes {
					if value == nil {
						pipe.Del(ctx, s.key(key))
						continue
					}
					pipe.Set(ctx, s.key(key), value, 0)
				}
				return nil
			})
			return err
		})
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
