// Package fsm holds per-conversation wizard state: a named state plus a data
// bag, keyed by bot, chat and user.
package fsm

import (
	"context"
	"encoding/json"
	"fmt"
)

// State names a wizard step. None means no active wizard.
type State string

const None State = ""

// Key identifies one conversation.
type Key struct {
	BotID  int64
	ChatID int64
	UserID int64
}

func (k Key) String() string {
	return fmt.Sprintf("fsm:%d:%d:%d", k.BotID, k.ChatID, k.UserID)
}

// Data is the wizard data bag. Values stay JSON encoded until read so that
// integers survive a round trip through any backend.
type Data map[string]json.RawMessage

// Storage persists states and data bags.
type Storage interface {
	State(ctx context.Context, key Key) (State, error)
	SetState(ctx context.Context, key Key, state State) error
	Data(ctx context.Context, key Key) (Data, error)
	SetData(ctx context.Context, key Key, data Data) error
	// UpdateData applies fn to the current bag and stores the result
	// atomically with respect to other UpdateData calls on the same key.
	UpdateData(ctx context.Context, key Key, fn func(Data) error) (Data, error)
}

// Get decodes the value stored under name.
func Get[T any](d Data, name string) (T, bool, error) {
	var v T
	raw, ok := d[name]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("fsm: decode %q: %w", name, err)
	}
	return v, true, nil
}

// Put encodes v under name.
func Put[T any](d Data, name string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("fsm: encode %q: %w", name, err)
	}
	d[name] = raw
	return nil
}

// Context is the handle handlers use for the current conversation.
type Context struct {
	storage Storage
	key     Key
}

func NewContext(storage Storage, key Key) *Context {
	return &Context{storage: storage, key: key}
}

func (c *Context) Key() Key {
	return c.key
}

func (c *Context) State(ctx context.Context) (State, error) {
	return c.storage.State(ctx, c.key)
}

func (c *Context) SetState(ctx context.Context, state State) error {
	return c.storage.SetState(ctx, c.key, state)
}

func (c *Context) Data(ctx context.Context) (Data, error) {
	return c.storage.Data(ctx, c.key)
}

func (c *Context) UpdateData(ctx context.Context, fn func(Data) error) (Data, error) {
	return c.storage.UpdateData(ctx, c.key, fn)
}

// Clear resets the conversation to None with an empty bag.
func (c *Context) Clear(ctx context.Context) error {
	if err := c.storage.SetState(ctx, c.key, None); err != nil {
		return err
	}
	return c.storage.SetData(ctx, c.key, Data{})
}
