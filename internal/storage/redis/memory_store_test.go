package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	xerrors "AIrchitect-CLI/internal/errors"
)

// 需要真实 Redis，通过 AIRCHITECT_TEST_REDIS 指定地址。
func newLiveStore(t *testing.T) *MemoryStore {
	t.Helper()
	addr := os.Getenv("AIRCHITECT_TEST_REDIS")
	if addr == "" {
		t.Skip("AIRCHITECT_TEST_REDIS not set")
	}
	prefix := fmt.Sprintf("airchitect:test:%d:", time.Now().UnixNano())
	store, err := NewMemoryStore(context.Background(), Config{Address: addr, Prefix: prefix})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := store.client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			store.client.Del(ctx, keys...)
		}
		store.Close()
	})
	return store
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := newLiveStore(t)
	ctx := context.Background()

	if ok, err := store.Store(ctx, "calc:10:3", map[string]any{"sum": 13}); err != nil || !ok {
		t.Fatalf("store: ok=%v err=%v", ok, err)
	}
	if ok, err := store.Store(ctx, "note", "Remember the Milk"); err != nil || !ok {
		t.Fatalf("store: ok=%v err=%v", ok, err)
	}

	value, found, err := store.Retrieve(ctx, "calc:10:3")
	if err != nil || !found {
		t.Fatalf("retrieve: found=%v err=%v", found, err)
	}
	if m, ok := value.(map[string]any); !ok || m["sum"] != float64(13) {
		t.Fatalf("unexpected value %#v", value)
	}
	if _, found, _ := store.Retrieve(ctx, "missing"); found {
		t.Fatalf("missing key reported as found")
	}

	keys, err := store.Search(ctx, "milk")
	if err != nil || len(keys) != 1 || keys[0] != "note" {
		t.Fatalf("search: %v %v", keys, err)
	}
}

func TestMemoryStoreValidation(t *testing.T) {
	if _, err := NewMemoryStore(context.Background(), Config{}); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	store := NewMemoryStoreWithClient(nil, "")
	if store.prefix != DefaultPrefix {
		t.Fatalf("unexpected default prefix %q", store.prefix)
	}
	if _, err := store.Store(context.Background(), "", 1); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected invalid argument for empty key, got %v", err)
	}
}
