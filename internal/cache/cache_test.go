package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, ok, err := m.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get(k) = ok %v, err %v", ok, err)
	}
	if string(got) != "v" {
		t.Errorf("Get(k) = %q, want v", got)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("expected miss after Delete")
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_ = m.Set(ctx, "short", []byte("1"), 10*time.Minute)
	_ = m.Set(ctx, "forever", []byte("2"), 0)

	now = now.Add(15 * time.Minute)

	if _, ok, _ := m.Get(ctx, "short"); ok {
		t.Error("expected short entry to expire")
	}
	if _, ok, _ := m.Get(ctx, "forever"); !ok {
		t.Error("zero ttl entry should not expire")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after expired entry is evicted", m.Len())
	}
}

func TestMemory_SweepsExpiredOnSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		_ = m.Set(ctx, fmt.Sprintf("wx:%d", i), []byte("x"), time.Minute)
	}
	_ = m.Set(ctx, "pinned", []byte("p"), 0)
	if m.Len() != 1001 {
		t.Fatalf("Len() = %d, want 1001 before expiry", m.Len())
	}

	now = now.Add(time.Hour)
	_ = m.Set(ctx, "fresh", []byte("f"), time.Minute)

	if m.Len() != 2 {
		t.Errorf("Len() = %d after all TTLs expired, want 2 (pinned + fresh)", m.Len())
	}
	if _, ok, _ := m.Get(ctx, "pinned"); !ok {
		t.Error("sweep dropped an entry without ttl")
	}
}

func TestMemory_SetCopiesValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	_ = m.Set(ctx, "k", buf, time.Minute)
	buf[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value mutated: %q", got)
	}
}
