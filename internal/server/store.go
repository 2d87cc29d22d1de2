package server

import (
	"context"
	"sync"
	"time"
)

// Store persists sessions. The memory store serves single-process runs;
// the redis store lets sessions survive restarts.
type Store interface {
	Save(ctx context.Context, g *Game) error
	Get(ctx context.Context, id string) (*Game, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// MemoryStore is a map-backed Store with per-entry expiry.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	games map[string]memoryEntry
}

type memoryEntry struct {
	game     *Game
	deadline time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, games: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(_ context.Context, g *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.games[g.ID] = memoryEntry{game: &cp, deadline: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.games[id]
	if !ok {
		return nil, nil
	}
	if time.Now().After(e.deadline) {
		delete(s.games, id)
		return nil, nil
	}
	cp := *e.game
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for id, e := range s.games {
		if now.After(e.deadline) {
			delete(s.games, id)
			continue
		}
		n++
	}
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }
