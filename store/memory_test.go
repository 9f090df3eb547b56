package store

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/rushteam/searchrank/core"
)

func TestMemoryStore_GetSet(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if _, err := ms.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("err = %v, want store not found", err)
	}

	if err := ms.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := ms.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get() = %q, want v", got)
	}

	if err := ms.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("err after delete = %v, want store not found", err)
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.Set(ctx, "k", []byte("v"), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := ms.Get(ctx, "k"); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("err after expiry = %v, want store not found", err)
	}
}

func TestMemoryStore_CloseStopsCleanup(t *testing.T) {
	before := runtime.NumGoroutine()

	stores := make([]*MemoryStore, 20)
	for i := range stores {
		stores[i] = NewMemoryStore()
	}
	for _, ms := range stores {
		if err := ms.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		// 二次 Close 不应 panic
		if err := ms.Close(); err != nil {
			t.Fatalf("second Close() error = %v", err)
		}
	}

	// 清理协程收到退出信号需要一点调度时间
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before+2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("goroutines = %d after closing %d stores, want close to %d",
		runtime.NumGoroutine(), len(stores), before)
}

func TestMemoryStore_Batch(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err != nil {
		t.Fatal(err)
	}
	got, err := ms.BatchGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet() = %v", got)
	}
}

func TestMemoryStore_Hashes(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.HSet(ctx, "product:aggs:101", "ctr", []byte("0.12")); err != nil {
		t.Fatal(err)
	}
	if err := ms.HSet(ctx, "product:aggs:101", "popularity", []byte("0.9")); err != nil {
		t.Fatal(err)
	}

	v, err := ms.HGet(ctx, "product:aggs:101", "ctr")
	if err != nil {
		t.Fatalf("HGet() error = %v", err)
	}
	if string(v) != "0.12" {
		t.Errorf("HGet() = %q, want 0.12", v)
	}

	all, err := ms.HGetAll(ctx, "product:aggs:101")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("HGetAll() returned %d fields, want 2", len(all))
	}

	empty, err := ms.HGetAll(ctx, "product:aggs:999")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("HGetAll() on missing key = %v, want empty", empty)
	}
}
