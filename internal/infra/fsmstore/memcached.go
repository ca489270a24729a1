package fsmstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"

	"github.com/televi1/televi/internal/dispatch/fsm"
)

type MemcachedStorage struct {
	client     *memcache.Client
	expiration int32
}

var _ fsm.Storage = (*MemcachedStorage)(nil)

func NewMemcachedStorage(client *memcache.Client, ttl time.Duration) *MemcachedStorage {
	return &MemcachedStorage{client: client, expiration: int32(ttl / time.Second)}
}

func (s *MemcachedStorage) State(ctx context.Context, key fsm.Key) (fsm.State, error) {
	item, err := s.client.Get(stateKey(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return fsm.None, nil
	}
	if err != nil {
		return fsm.None, errors.Wrap(err, "MemcachedStorage.State")
	}
	return fsm.State(item.Value), nil
}

func (s *MemcachedStorage) SetState(ctx context.Context, key fsm.Key, state fsm.State) error {
	if state == fsm.None {
		return s.delete(stateKey(key))
	}
	err := s.client.Set(&memcache.Item{Key: stateKey(key), Value: []byte(state), Expiration: s.expiration})
	return errors.Wrap(err, "MemcachedStorage.SetState")
}

func (s *MemcachedStorage) delete(k string) error {
	err := s.client.Delete(k)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return errors.Wrap(err, "MemcachedStorage.delete")
	}
	return nil
}

func decodeItem(item *memcache.Item) (fsm.Data, error) {
	data := fsm.Data{}
	if item == nil || len(item.Value) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(item.Value, &data); err != nil {
		return nil, errors.Wrap(err, "MemcachedStorage: decode")
	}
	return data, nil
}

func (s *MemcachedStorage) Data(ctx context.Context, key fsm.Key) (fsm.Data, error) {
	item, err := s.client.Get(dataKey(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return fsm.Data{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "MemcachedStorage.Data")
	}
	return decodeItem(item)
}

func (s *MemcachedStorage) SetData(ctx context.Context, key fsm.Key, data fsm.Data) error {
	if len(data) == 0 {
		return s.delete(dataKey(key))
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "MemcachedStorage.SetData: encode")
	}
	err = s.client.Set(&memcache.Item{Key: dataKey(key), Value: raw, Expiration: s.expiration})
	return errors.Wrap(err, "MemcachedStorage.SetData")
}

// UpdateData uses gets/cas. A missing bag is created with add, so two first
// writers still conflict instead of overwriting each other.
func (s *MemcachedStorage) UpdateData(ctx context.Context, key fsm.Key, fn func(fsm.Data) error) (fsm.Data, error) {
	k := dataKey(key)
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		item, err := s.client.Get(k)
		if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
			return nil, errors.Wrap(err, "MemcachedStorage.UpdateData")
		}
		if errors.Is(err, memcache.ErrCacheMiss) {
			item = nil
		}

		data, err := decodeItem(item)
		if err != nil {
			return nil, err
		}
		if err := fn(data); err != nil {
			return nil, err
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, errors.Wrap(err, "MemcachedStorage.UpdateData: encode")
		}

		switch {
		case item == nil:
			err = s.client.Add(&memcache.Item{Key: k, Value: raw, Expiration: s.expiration})
		default:
			item.Value = raw
			item.Expiration = s.expiration
			err = s.client.CompareAndSwap(item)
		}
		if errors.Is(err, memcache.ErrNotStored) || errors.Is(err, memcache.ErrCASConflict) || errors.Is(err, memcache.ErrCacheMiss) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "MemcachedStorage.UpdateData")
		}
		return data, nil
	}
	return nil, ErrContention
}
