package gm

import (
	"testing"
)

func TestNewSeed(t *testing.T) {
	seed := NewSeed("his past catches up with him")

	if seed.Status != SeedWaiting {
		t.Errorf("expected waiting status, got %q", seed.Status)
	}
	if seed.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if seed.Created.IsZero() {
		t.Error("expected created timestamp")
	}
}

func TestNextSeedID_Monotonic(t *testing.T) {
	var prev int64
	for i := 0; i < 100; i++ {
		id := nextSeedID()
		if id <= prev {
			t.Fatalf("seed IDs not strictly increasing: %d after %d", id, prev)
		}
		prev = id
	}
}

func TestSettings_SeedLifecycle(t *testing.T) {
	s := NewSettings()

	seed := s.AddSeed("a letter arrives")
	if len(s.UserSeeds) != 1 {
		t.Fatalf("expected 1 seed, got %d", len(s.UserSeeds))
	}

	if !s.RemoveSeed(seed.ID) {
		t.Error("expected RemoveSeed to report removal")
	}
	if len(s.UserSeeds) != 0 {
		t.Errorf("expected 0 seeds after removal, got %d", len(s.UserSeeds))
	}
	if s.RemoveSeed(seed.ID) {
		t.Error("expected RemoveSeed to report false for unknown ID")
	}
}

func TestSettings_UnresolvedSeeds(t *testing.T) {
	s := NewSettings()
	s.AddSeed("first")
	second := s.AddSeed("second")

	for i := range s.UserSeeds {
		if s.UserSeeds[i].ID == second.ID {
			s.UserSeeds[i].Status = SeedResolved
		}
	}

	unresolved := s.UnresolvedSeeds()
	if len(unresolved) != 1 {
		t.Fatalf("expected 1 unresolved seed, got %d", len(unresolved))
	}
	if unresolved[0].Text != "first" {
		t.Errorf("expected 'first', got %q", unresolved[0].Text)
	}
}

func TestSettings_NormalizeClampsChaos(t *testing.T) {
	s := NewSettings()
	s.World.ChaosFactor = 9
	s.Normalize()
	if s.World.ChaosFactor != ChaosMax {
		t.Errorf("expected chaos clamped to %d, got %d", ChaosMax, s.World.ChaosFactor)
	}

	s.World.ChaosFactor = -1
	s.Normalize()
	if s.World.ChaosFactor != ChaosMin {
		t.Errorf("expected chaos clamped to %d, got %d", ChaosMin, s.World.ChaosFactor)
	}
}
