package persona

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNotFound = errors.New("persona not found")

// Store exposes persona retrieval and the active-persona switch. Reads vastly
// outnumber writes, so implementations should favor read concurrency.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)

	// GetActive returns the single active persona, or ok=false when none is
	// active (callers fall back to the built-in default).
	GetActive() (Persona, bool)

	// SetActive flips the active flag to the target persona. The switch is
	// atomic: readers never observe two active personas.
	SetActive(id string) error

	Create(p Persona) error
}

// MemoryStore implements Store with an RWMutex-guarded slice. The
// single-active invariant is maintained under the exclusive lock.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
// Every seed persona must validate, and at most one may be marked active.
func NewMemoryStore(items []Persona) (*MemoryStore, error) {
	active := 0
	copied := make([]Persona, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		if item.IsActive {
			active++
		}
		copied = append(copied, item)
	}
	if active > 1 {
		return nil, fmt.Errorf("persona: %d seed personas marked active, want at most 1", active)
	}
	return &MemoryStore{items: copied}, nil
}

// List returns a copy of the persona catalog.
func (s *MemoryStore) List() []Persona {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// GetActive returns the currently active persona, if any.
func (s *MemoryStore) GetActive() (Persona, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.IsActive {
			return item, true
		}
	}
	return Persona{}, false
}

// SetActive clears every active flag and sets the target's, all under one
// exclusive lock so the flip is atomic with respect to concurrent reads.
func (s *MemoryStore) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := -1
	for i, item := range s.items {
		if item.ID == id {
			target = i
			break
		}
	}
	if target < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	for i := range s.items {
		s.items[i].IsActive = false
	}
	s.items[target].IsActive = true
	return nil
}

// Create admits a new persona after validation. Duplicate ids are rejected.
// A persona created with IsActive set goes through the same clear-then-set
// path as SetActive.
func (s *MemoryStore) Create(p Persona) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == p.ID {
			return fmt.Errorf("persona %s already exists", p.ID)
		}
	}
	if p.IsActive {
		for i := range s.items {
			s.items[i].IsActive = false
		}
	}
	s.items = append(s.items, p)
	return nil
}
