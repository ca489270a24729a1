package fsm

import (
	"context"
	"sync"
	"testing"
)

func TestContextClear(t *testing.T) {
	ctx := context.Background()
	c := NewContext(NewMemoryStorage(), Key{BotID: 1, ChatID: 2, UserID: 2})

	if err := c.SetState(ctx, "wizard:step"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if _, err := c.UpdateData(ctx, func(d Data) error { return Put(d, "ids", []int64{1, 2}) }); err != nil {
		t.Fatalf("update data: %v", err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	state, _ := c.State(ctx)
	data, _ := c.Data(ctx)
	if state != None || len(data) != 0 {
		t.Fatalf("expected cleared conversation, got %q %v", state, data)
	}
}

func TestGetPreservesIntegers(t *testing.T) {
	d := Data{}
	big := int64(1) << 53
	if err := Put(d, "ids", []int64{big + 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	ids, ok, err := Get[[]int64](d, "ids")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if ids[0] != big+1 {
		t.Fatalf("expected %d got %d", big+1, ids[0])
	}

	_, ok, err = Get[[]int64](d, "missing")
	if ok || err != nil {
		t.Fatalf("expected missing key to be reported absent")
	}
}

func TestMemoryUpdateDataIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	key := Key{BotID: 1, ChatID: 1, UserID: 1}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.UpdateData(ctx, key, func(d Data) error {
				n, _, _ := Get[int](d, "n")
				return Put(d, "n", n+1)
			})
		}()
	}
	wg.Wait()

	data, _ := s.Data(ctx, key)
	n, _, _ := Get[int](data, "n")
	if n != 50 {
		t.Fatalf("expected 50 increments, got %d", n)
	}
}

func TestMemoryDataIsCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	key := Key{BotID: 1}

	_ = s.SetData(ctx, key, Data{"a": []byte(`1`)})
	d, _ := s.Data(ctx, key)
	d["a"] = []byte(`2`)

	again, _ := s.Data(ctx, key)
	if string(again["a"]) != "1" {
		t.Fatalf("stored data must not alias returned maps")
	}
}
