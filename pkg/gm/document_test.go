package gm

import (
	"encoding/json"
	"testing"
)

func TestNewDocument_Skeleton(t *testing.T) {
	doc := NewDocument()

	if err := doc.Validate(); err != nil {
		t.Fatalf("skeleton should validate: %v", err)
	}
	if doc.WorldState.CurrentTension != TensionNeutral {
		t.Errorf("expected neutral tension, got %q", doc.WorldState.CurrentTension)
	}
	if len(doc.ActiveThreads) != 0 || len(doc.PlantedSeeds) != 0 || len(doc.PendingIdeas) != 0 {
		t.Error("skeleton sequences should be empty")
	}
	if len(doc.UserSeeds) != 0 {
		t.Error("skeleton user seeds should be empty")
	}
}

func TestDocument_SkeletonSerializesWithoutNulls(t *testing.T) {
	data, err := json.Marshal(NewDocument())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, field := range []string{"active_threads", "planted_seeds", "character_states", "knowledge_map", "pending_ideas", "world_state", "user_seeds"} {
		raw, ok := generic[field]
		if !ok {
			t.Errorf("field %q missing from serialized skeleton", field)
			continue
		}
		if string(raw) == "null" {
			t.Errorf("field %q serialized as null", field)
		}
	}
}

func TestDocument_ValidateRejectsBadTension(t *testing.T) {
	doc := NewDocument()
	doc.WorldState.CurrentTension = "simmering"
	if err := doc.Validate(); err == nil {
		t.Error("expected validation error for unknown tension")
	}
}

func TestDocument_ValidateRejectsNonObjectKnowledgeMap(t *testing.T) {
	doc := NewDocument()
	doc.KnowledgeMap = json.RawMessage(`["not", "an", "object"]`)
	if err := doc.Validate(); err == nil {
		t.Error("expected validation error for array knowledge_map")
	}
}

func TestDocument_CloneIsIndependent(t *testing.T) {
	doc := NewDocument()
	doc.WorldState.ConfirmedExists = []string{"the lighthouse"}
	doc.CharacterStates["Mira"] = json.RawMessage(`{"mood":"calm"}`)

	clone := doc.Clone()
	clone.WorldState.ConfirmedExists[0] = "the cellar"
	clone.CharacterStates["Bram"] = json.RawMessage(`{}`)

	if doc.WorldState.ConfirmedExists[0] != "the lighthouse" {
		t.Error("mutating clone changed the original world state")
	}
	if _, ok := doc.CharacterStates["Bram"]; ok {
		t.Error("mutating clone changed the original character states")
	}
}
