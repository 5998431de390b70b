package store

import (
	"context"
	"sort"
	"sync"

	"github.com/lumichat/lumichat/internal/model/chat"
)

// MemoryStore implements ExchangeStore with an in-process map. It is the
// default backend for local development and tests; production deployments
// use the Postgres backend.
type MemoryStore struct {
	mu        sync.RWMutex
	exchanges map[string][]chat.Exchange
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{exchanges: make(map[string][]chat.Exchange)}
}

func (s *MemoryStore) Record(_ context.Context, ex chat.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges[ex.SessionID] = append(s.exchanges[ex.SessionID], ex)
	return nil
}

func (s *MemoryStore) ListBySession(_ context.Context, sessionID string, limit int) ([]chat.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.exchanges[sessionID]
	sorted := append([]chat.Exchange(nil), all...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[len(sorted)-limit:]
	}
	return sorted, nil
}

func (s *MemoryStore) Count(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.exchanges[sessionID]), nil
}

func (s *MemoryStore) DeleteBySession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.exchanges, sessionID)
	return nil
}
