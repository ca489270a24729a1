package fsm

import (
	"context"
	"sync"
)

// MemoryStorage keeps conversations in process memory. It is used by the
// polling mode and by tests.
type MemoryStorage struct {
	mu     sync.Mutex
	states map[Key]State
	data   map[Key]Data
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		states: make(map[Key]State),
		data:   make(map[Key]Data),
	}
}

func (m *MemoryStorage) State(ctx context.Context, key Key) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[key], nil
}

func (m *MemoryStorage) SetState(ctx context.Context, key Key, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state == None {
		delete(m.states, key)
		return nil
	}
	m.states[key] = state
	return nil
}

func (m *MemoryStorage) Data(ctx context.Context, key Key) (Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyData(m.data[key]), nil
}

func (m *MemoryStorage) SetData(ctx context.Context, key Key, data Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(data) == 0 {
		delete(m.data, key)
		return nil
	}
	m.data[key] = copyData(data)
	return nil
}

func (m *MemoryStorage) UpdateData(ctx context.Context, key Key, fn func(Data) error) (Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := copyData(m.data[key])
	if err := fn(current); err != nil {
		return nil, err
	}
	if len(current) == 0 {
		delete(m.data, key)
	} else {
		m.data[key] = copyData(current)
	}
	return current, nil
}

func copyData(d Data) Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = append([]byte(nil), v...)
	}
	return out
}
