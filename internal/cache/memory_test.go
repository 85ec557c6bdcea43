package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	if _, err := c.Get(context.Background(), "absent"); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); err != ErrCacheMiss {
		t.Errorf("Expected miss after TTL, got %v", err)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	c.Delete(ctx, "k")

	if _, err := c.Get(ctx, "k"); err != ErrCacheMiss {
		t.Errorf("Expected miss after delete, got %v", err)
	}
}

func TestMemoryCacheGetValueIsolated(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("abc"), time.Minute)
	got, _ := c.Get(ctx, "k")
	got[0] = 'x'

	again, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("Cached value mutated through returned slice: %q", again)
	}
}

func TestGetOrSetComputesOnce(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	calls := 0
	fn := func() ([]byte, error) {
		calls++
		return []byte("computed"), nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.GetOrSet(ctx, "k", time.Minute, fn)
		if err != nil {
			t.Fatalf("GetOrSet failed: %v", err)
		}
		if string(got) != "computed" {
			t.Errorf("GetOrSet = %q", got)
		}
	}

	if calls != 1 {
		t.Errorf("Expected 1 compute call, got %d", calls)
	}
}

func TestGetOrSetPropagatesComputeError(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	wantErr := errors.New("compute failed")
	_, err := c.GetOrSet(context.Background(), "k", time.Minute, func() ([]byte, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Errorf("Expected compute error, got %v", err)
	}

	// A failed compute must not poison the key.
	if _, err := c.Get(context.Background(), "k"); err != ErrCacheMiss {
		t.Errorf("Expected miss after failed compute, got %v", err)
	}
}
