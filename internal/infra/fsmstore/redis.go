// Package fsmstore holds the shared conversation-state backends used when the
// webhook runs on more than one process.
package fsmstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/televi1/televi/internal/dispatch/fsm"
)

const maxOptimisticRetries = 16

// ErrContention is returned when an optimistic update kept losing the race.
var ErrContention = errors.New("fsmstore: too much contention on conversation")

type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

var _ fsm.Storage = (*RedisStorage)(nil)

// NewRedisStorage stores conversations in redis. A zero ttl keeps them forever.
func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func stateKey(key fsm.Key) string { return key.String() + ":state" }
func dataKey(key fsm.Key) string  { return key.String() + ":data" }

func (s *RedisStorage) State(ctx context.Context, key fsm.Key) (fsm.State, error) {
	val, err := s.client.Get(ctx, stateKey(key)).Result()
	if err == redis.Nil {
		return fsm.None, nil
	}
	if err != nil {
		return fsm.None, errors.Wrap(err, "RedisStorage.State")
	}
	return fsm.State(val), nil
}

func (s *RedisStorage) SetState(ctx context.Context, key fsm.Key, state fsm.State) error {
	var err error
	if state == fsm.None {
		err = s.client.Del(ctx, stateKey(key)).Err()
	} else {
		err = s.client.Set(ctx, stateKey(key), string(state), s.ttl).Err()
	}
	return errors.Wrap(err, "RedisStorage.SetState")
}

func (s *RedisStorage) Data(ctx context.Context, key fsm.Key) (fsm.Data, error) {
	return s.readData(ctx, s.client, key)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStorage) readData(ctx context.Context, c getter, key fsm.Key) (fsm.Data, error) {
	raw, err := c.Get(ctx, dataKey(key)).Bytes()
	if err == redis.Nil {
		return fsm.Data{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "RedisStorage.Data")
	}
	data := fsm.Data{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(err, "RedisStorage.Data: decode")
	}
	return data, nil
}

func (s *RedisStorage) SetData(ctx context.Context, key fsm.Key, data fsm.Data) error {
	if len(data) == 0 {
		return errors.Wrap(s.client.Del(ctx, dataKey(key)).Err(), "RedisStorage.SetData")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "RedisStorage.SetData: encode")
	}
	return errors.Wrap(s.client.Set(ctx, dataKey(key), raw, s.ttl).Err(), "RedisStorage.SetData")
}

// UpdateData runs fn inside WATCH/MULTI and retries when another writer
// touched the bag in between.
func (s *RedisStorage) UpdateData(ctx context.Context, key fsm.Key, fn func(fsm.Data) error) (fsm.Data, error) {
	k := dataKey(key)
	var result fsm.Data

	txf := func(tx *redis.Tx) error {
		data, err := s.readData(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(data); err != nil {
			return err
		}
		var raw []byte
		if len(data) > 0 {
			raw, err = json.Marshal(data)
			if err != nil {
				return errors.Wrap(err, "RedisStorage.UpdateData: encode")
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if raw == nil {
				pipe.Del(ctx, k)
			} else {
				pipe.Set(ctx, k, raw, s.ttl)
			}
			return nil
		})
		if err == nil {
			result = data
		}
		return err
	}

	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		err := s.client.Watch(ctx, txf, k)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, ErrContention
}
