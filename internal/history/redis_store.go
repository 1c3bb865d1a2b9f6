package history

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/redis/go-redis/v9"

	"go-relay/internal/errs"
)

const (
	redisIndexKey  = "relay:conversations"
	redisLogPrefix = "relay:log:"
)

// RedisStore keeps each conversation as a Redis list and tracks known keys
// in a set, for deployments that want history outside the local disk.
type RedisStore struct {
	rdb redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Append(ctx context.Context, key Key, line string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, redisIndexKey, string(key))
		p.RPush(ctx, redisLogPrefix+string(key), line)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: append %s: %w", errs.ErrPersistence, key, err)
	}
	return nil
}

func (s *RedisStore) Replay(ctx context.Context, name string) iter.Seq2[string, error] {
	return replay(ctx, s, name)
}

func (s *RedisStore) Conversations(ctx context.Context, name string) ([]Key, error) {
	members, err := s.rdb.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations: %w", errs.ErrPersistence, err)
	}
	slices.Sort(members)
	var keys []Key
	for _, m := range members {
		key := Key(m)
		if key.Canonical() && key.Has(name) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *RedisStore) Transcript(ctx context.Context, key Key) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		lines, err := s.rdb.LRange(ctx, redisLogPrefix+string(key), 0, -1).Result()
		if err != nil {
			yield("", fmt.Errorf("%w: read %s: %w", errs.ErrPersistence, key, err))
			return
		}
		for _, line := range lines {
			if !yield(cleanLine(line), nil) {
				return
			}
		}
	}
}
