package persona

import (
	"errors"
	"testing"
)

func testPersona(id string, active bool) Persona {
	p := Fallback()
	p.ID = id
	p.Name = "Persona " + id
	p.IsActive = active
	return p
}

func TestValidateRejectsInvertedBounds(t *testing.T) {
	p := Fallback()
	p.MinResponseTime = 5.0
	p.MaxResponseTime = 2.0
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for min > max")
	}
}

func TestValidateRejectsAbsurdCeiling(t *testing.T) {
	p := Fallback()
	p.MaxResponseTime = 3600
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for delay above ceiling")
	}
}

func TestFallbackValidates(t *testing.T) {
	if err := Fallback().Validate(); err != nil {
		t.Fatalf("built-in fallback must validate: %v", err)
	}
}

func TestSeedValidates(t *testing.T) {
	if _, err := NewMemoryStore(Seed()); err != nil {
		t.Fatalf("seed catalog must load: %v", err)
	}
}

func TestNewMemoryStoreRejectsTwoActive(t *testing.T) {
	_, err := NewMemoryStore([]Persona{testPersona("a", true), testPersona("b", true)})
	if err == nil {
		t.Fatal("expected error for two active seed personas")
	}
}

func countActive(s *MemoryStore) int {
	n := 0
	for _, p := range s.List() {
		if p.IsActive {
			n++
		}
	}
	return n
}

func TestSetActiveFlipsExactlyOne(t *testing.T) {
	s, err := NewMemoryStore([]Persona{testPersona("a", true), testPersona("b", false), testPersona("c", false)})
	if err != nil {
		t.Fatalf("NewMemoryStore err: %v", err)
	}

	if err := s.SetActive("b"); err != nil {
		t.Fatalf("SetActive err: %v", err)
	}

	if n := countActive(s); n != 1 {
		t.Fatalf("%d active personas, want 1", n)
	}
	active, ok := s.GetActive()
	if !ok || active.ID != "b" {
		t.Fatalf("active = %+v, want b", active)
	}
}

func TestSetActiveUnknown(t *testing.T) {
	s, _ := NewMemoryStore([]Persona{testPersona("a", true)})
	if err := s.SetActive("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	// The previous active persona is untouched.
	if active, ok := s.GetActive(); !ok || active.ID != "a" {
		t.Fatalf("active = %+v, want a", active)
	}
}

func TestCreateValidatesAndRejectsDuplicates(t *testing.T) {
	s, _ := NewMemoryStore(nil)

	bad := testPersona("bad", false)
	bad.MinResponseTime = 9
	bad.MaxResponseTime = 1
	if err := s.Create(bad); err == nil {
		t.Fatal("expected validation error")
	}

	if err := s.Create(testPersona("a", false)); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if err := s.Create(testPersona("a", false)); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestCreateActiveDisplacesCurrent(t *testing.T) {
	s, _ := NewMemoryStore([]Persona{testPersona("a", true)})
	if err := s.Create(testPersona("b", true)); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if n := countActive(s); n != 1 {
		t.Fatalf("%d active personas, want 1", n)
	}
	if active, _ := s.GetActive(); active.ID != "b" {
		t.Fatalf("active = %s, want b", active.ID)
	}
}

func TestGetActiveNoneActive(t *testing.T) {
	s, _ := NewMemoryStore([]Persona{testPersona("a", false)})
	if _, ok := s.GetActive(); ok {
		t.Fatal("expected no active persona")
	}
}
