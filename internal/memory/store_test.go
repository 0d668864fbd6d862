package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"AIrchitect-CLI/internal/config"
	xerrors "AIrchitect-CLI/internal/errors"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	original := map[string]any{"sum": 13, "tags": []string{"calc"}}
	if ok, err := store.Store(ctx, "calc:10:3", original); err != nil || !ok {
		t.Fatalf("store: ok=%v err=%v", ok, err)
	}
	original["sum"] = 99

	value, found, err := store.Retrieve(ctx, "calc:10:3")
	if err != nil || !found {
		t.Fatalf("retrieve: found=%v err=%v", found, err)
	}
	m := value.(map[string]any)
	if m["sum"] != float64(13) {
		t.Fatalf("stored value must be a snapshot, got %v", m["sum"])
	}

	if _, found, err := store.Retrieve(ctx, "missing"); err != nil || found {
		t.Fatalf("missing key: found=%v err=%v", found, err)
	}
	if _, err := store.Store(ctx, " ", 1); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := store.Store(ctx, "ch", make(chan int)); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected unserializable value to be rejected, got %v", err)
	}
}

func TestInMemoryStoreSearch(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	_, _ = store.Store(ctx, "todo:b", "Buy MILK")
	_, _ = store.Store(ctx, "todo:a", "walk the dog")
	_, _ = store.Store(ctx, "milk-brand", "oat")

	keys, err := store.Search(ctx, "milk")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if fmt.Sprint(keys) != "[milk-brand todo:b]" {
		t.Fatalf("unexpected keys %v", keys)
	}

	all, _ := store.Search(ctx, "")
	if len(all) != 3 || all[0] != "milk-brand" {
		t.Fatalf("empty query should match everything in order, got %v", all)
	}
	if none, _ := store.Search(ctx, "zebra"); none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", none)
	}
}

func TestInMemoryStoreConcurrentWriters(t *testing.T) {
	store := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = store.Store(context.Background(), fmt.Sprintf("k%d", i), i)
		}(i)
	}
	wg.Wait()
	if store.Len() != 50 {
		t.Fatalf("expected 50 keys, got %d", store.Len())
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	backend, err := Open(context.Background(), config.MemoryConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := backend.(*InMemoryStore); !ok {
		t.Fatalf("unexpected backend %T", backend)
	}
	_ = backend.Close()

	if backend, err := Open(context.Background(), config.MemoryConfig{Driver: "none"}); err != nil || backend != nil {
		t.Fatalf("driver none should yield no backend, got %v %v", backend, err)
	}
	if _, err := Open(context.Background(), config.MemoryConfig{Driver: "sqlite"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(context.Background(), config.MemoryConfig{Driver: "redis"}); err == nil {
		t.Fatalf("expected error for redis without address")
	}
	if _, err := Open(context.Background(), config.MemoryConfig{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for mysql without dsn")
	}
}
