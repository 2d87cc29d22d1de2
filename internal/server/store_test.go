package server

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	s, err := NewRedisStore(fmt.Sprintf("redis://%s/0", mr.Addr()), time.Hour)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	g := NewGame("g1", "alice")
	if _, derr := g.ApplyMove(0, "e2e4"); derr != nil {
		t.Fatalf("apply: %v", derr)
	}
	if err := s.Save(ctx, g); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != "g1" || len(got.MovesUCI) != 1 || got.MovesUCI[0] != "e2e4" {
		t.Fatalf("got = %+v", got)
	}
	if got.Seats[0].Name != "alice" || got.DrawOfferBy != -1 {
		t.Fatalf("fields lost: %+v", got)
	}

	if missing, err := s.Get(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("missing get = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestRedisStoreCountAndDelete(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	for _, id := range []string{"g1", "g2"} {
		if err := s.Save(ctx, NewGame(id, "p")); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if n, err := s.Count(ctx); err != nil || n != 2 {
		t.Fatalf("count = (%d, %v), want 2", n, err)
	}

	if err := s.Delete(ctx, "g1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Fatalf("count after delete = %d, want 1", n)
	}

	// Value expiry prunes the index lazily.
	mr.FastForward(2 * time.Hour)
	if n, _ := s.Count(ctx); n != 0 {
		t.Fatalf("count after expiry = %d, want 0", n)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	if err := s.Save(ctx, NewGame("g1", "alice")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if g, _ := s.Get(ctx, "g1"); g == nil {
		t.Fatal("fresh entry must be readable")
	}

	time.Sleep(20 * time.Millisecond)
	if g, _ := s.Get(ctx, "g1"); g != nil {
		t.Fatal("expired entry must read as missing")
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
}

func TestMemoryStoreCopiesOnSave(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	g := NewGame("g1", "alice")
	if err := s.Save(ctx, g); err != nil {
		t.Fatalf("save: %v", err)
	}
	g.Seats[0].Name = "mallory"

	got, _ := s.Get(ctx, "g1")
	if got.Seats[0].Name != "alice" {
		t.Fatal("stored game must not alias the caller's value")
	}
}
