package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestTypedCacheRoundTrip(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer backend.Close()
	tc := NewTypedCache[testItem](backend, time.Minute)
	ctx := context.Background()

	want := &testItem{Name: "hello", Count: 3}
	if err := tc.Set(ctx, "k", want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := tc.Get(ctx, "k")
	if !ok {
		t.Fatal("Get: expected hit")
	}
	if got.Name != want.Name || got.Count != want.Count {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestTypedCacheMiss(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer backend.Close()
	tc := NewTypedCache[testItem](backend, time.Minute)

	if _, ok := tc.Get(context.Background(), "absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestTypedCacheUndecodableIsMiss(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer backend.Close()
	ctx := context.Background()

	backend.Set(ctx, "k", []byte("{not json"), 0)

	tc := NewTypedCache[testItem](backend, time.Minute)
	if _, ok := tc.Get(ctx, "k"); ok {
		t.Error("expected miss for undecodable entry")
	}
}

func TestTypedCacheGetOrSet(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer backend.Close()
	tc := NewTypedCache[testItem](backend, time.Minute)
	ctx := context.Background()

	calls := 0
	load := func() (*testItem, error) {
		calls++
		return &testItem{Name: "computed"}, nil
	}

	v, err := tc.GetOrSet(ctx, "k", load)
	if err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}
	if v.Name != "computed" {
		t.Errorf("value = %q, want computed", v.Name)
	}

	// Second call must come from cache.
	if _, err := tc.GetOrSet(ctx, "k", load); err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestTypedCacheGetOrSetError(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer backend.Close()
	tc := NewTypedCache[testItem](backend, time.Minute)

	wantErr := errors.New("load failed")
	_, err := tc.GetOrSet(context.Background(), "k", func() (*testItem, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}
