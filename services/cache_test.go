package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := NewTTLCache[int]()

	if _, ok := c.Get("missing", time.Minute); ok {
		t.Fatal("hit on empty cache")
	}

	c.Set("key", 42)
	value, ok := c.Get("key", time.Minute)
	if !ok || value != 42 {
		t.Fatalf("got %d/%v, want 42/true", value, ok)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewTTLCache[string]()
	c.Set("key", "value")

	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("key", time.Millisecond); ok {
		t.Fatal("entry survived past its ttl")
	}
	if _, ok := c.Get("key", time.Minute); !ok {
		t.Fatal("entry expired under a longer ttl")
	}
}

func TestCacheGetOrRefresh(t *testing.T) {
	c := NewTTLCache[string]()
	calls := 0
	refresh := func(context.Context) (string, error) {
		calls++
		return "fresh", nil
	}

	for i := 0; i < 3; i++ {
		value, err := c.GetOrRefresh(context.Background(), "key", time.Minute, refresh)
		if err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
		if value != "fresh" {
			t.Fatalf("got %q", value)
		}
	}
	if calls != 1 {
		t.Fatalf("refresh invoked %d times, want 1", calls)
	}
}

func TestCacheGetOrRefreshError(t *testing.T) {
	c := NewTTLCache[string]()
	boom := errors.New("upstream down")

	_, err := c.GetOrRefresh(context.Background(), "key", time.Minute, func(context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want upstream error", err)
	}
	if _, ok := c.Get("key", time.Minute); ok {
		t.Fatal("failed refresh cached a value")
	}
}

func TestCacheClearAndStats(t *testing.T) {
	c := NewTTLCache[int]()
	c.Set("a", 1)
	c.Set("b", 2)

	stats := c.Stats(time.Minute)
	if stats.TotalEntries != 2 || stats.ValidEntries != 2 || stats.ExpiredEntries != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	time.Sleep(5 * time.Millisecond)
	stats = c.Stats(time.Millisecond)
	if stats.ExpiredEntries != 2 || stats.ValidEntries != 0 {
		t.Fatalf("expiry not reflected in stats: %+v", stats)
	}

	c.Clear()
	if stats := c.Stats(time.Minute); stats.TotalEntries != 0 {
		t.Fatalf("clear left %d entries", stats.TotalEntries)
	}
}
