package redisstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"parking-ledger/internal/parking"
	"parking-ledger/internal/storage"
)

// Store keeps the snapshot under a single Redis key with no expiry.
type Store struct {
	c   *redis.Client
	key string
}

func New(addr, key string) *Store {
	return &Store{
		c: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
		key: key,
	}
}

func (s *Store) Load(ctx context.Context) (*parking.Snapshot, error) {
	val, err := s.c.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	return storage.Decode(val)
}

func (s *Store) Save(ctx context.Context, snap *parking.Snapshot) error {
	data, err := storage.Encode(snap)
	if err != nil {
		return err
	}
	if err := s.c.Set(ctx, s.key, data, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (s *Store) Close() error {
	return s.c.Close()
}
