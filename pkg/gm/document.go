package gm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tension describes where the oracle reads the scene on its dramatic arc.
type Tension string

const (
	TensionBuilding  Tension = "building"
	TensionPeaking   Tension = "peaking"
	TensionReleasing Tension = "releasing"
	TensionNeutral   Tension = "neutral"
)

func (t Tension) Valid() bool {
	switch t {
	case TensionBuilding, TensionPeaking, TensionReleasing, TensionNeutral:
		return true
	}
	return false
}

// WorldState tracks which narrative elements are established in the story.
type WorldState struct {
	ConfirmedExists []string `json:"confirmed_exists"`
	ImpliedPossible []string `json:"implied_possible"`
	CurrentTension  Tension  `json:"current_tension"`
}

// Document is the gatekeeper's persistent narrative memory for a single
// conversation. The nested thread, seed, state and knowledge structures are
// oracle-defined and deliberately left as raw JSON: the store validates only
// the outer shape and never interprets them.
//
// A document is always one of two things: the default skeleton, or a complete
// structure emitted by the oracle and accepted by the validator. It is
// replaced wholesale on every merge; partial shapes never persist.
type Document struct {
	ActiveThreads   []json.RawMessage          `json:"active_threads"`
	PlantedSeeds    []json.RawMessage          `json:"planted_seeds"`
	CharacterStates map[string]json.RawMessage `json:"character_states"`
	KnowledgeMap    json.RawMessage            `json:"knowledge_map"`
	PendingIdeas    []json.RawMessage          `json:"pending_ideas"`
	WorldState      WorldState                 `json:"world_state"`
	UserSeeds       []Seed                     `json:"user_seeds"`
}

// defaultKnowledgeMap is the empty knowledge structure the oracle is seeded
// with on a fresh conversation.
var defaultKnowledgeMap = json.RawMessage(`{"user_knows":[],"characters":{}}`)

// NewDocument returns the default skeleton: all sequences empty, neutral
// tension.
func NewDocument() *Document {
	doc := &Document{}
	doc.Normalize()
	return doc
}

// Validate checks the outer shape invariant. Inner thread/seed/knowledge
// structures are not inspected beyond being syntactically valid JSON, which
// the decoder has already guaranteed.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	if !d.WorldState.CurrentTension.Valid() {
		return fmt.Errorf("world_state.current_tension %q is not one of building|peaking|releasing|neutral", d.WorldState.CurrentTension)
	}
	if len(d.KnowledgeMap) > 0 && !isJSONObject(d.KnowledgeMap) {
		return fmt.Errorf("knowledge_map is not an object")
	}
	for _, seed := range d.UserSeeds {
		if !seed.Status.Valid() {
			return fmt.Errorf("user seed %d has unknown status %q", seed.ID, seed.Status)
		}
	}
	return nil
}

// Normalize fills nil collections so a serialized document always carries the
// complete shape, never JSON nulls.
func (d *Document) Normalize() {
	if d.ActiveThreads == nil {
		d.ActiveThreads = make([]json.RawMessage, 0)
	}
	if d.PlantedSeeds == nil {
		d.PlantedSeeds = make([]json.RawMessage, 0)
	}
	if d.CharacterStates == nil {
		d.CharacterStates = make(map[string]json.RawMessage)
	}
	if len(d.KnowledgeMap) == 0 {
		d.KnowledgeMap = defaultKnowledgeMap
	}
	if d.PendingIdeas == nil {
		d.PendingIdeas = make([]json.RawMessage, 0)
	}
	if d.WorldState.ConfirmedExists == nil {
		d.WorldState.ConfirmedExists = make([]string, 0)
	}
	if d.WorldState.ImpliedPossible == nil {
		d.WorldState.ImpliedPossible = make([]string, 0)
	}
	if d.WorldState.CurrentTension == "" {
		d.WorldState.CurrentTension = TensionNeutral
	}
	if d.UserSeeds == nil {
		d.UserSeeds = make([]Seed, 0)
	}
}

// Clone returns a deep copy via a JSON round trip. Used by the session layer
// so a failed cycle can never have mutated the cached document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		// A document held in memory always marshals; raw fields were produced
		// by the decoder.
		panic(fmt.Sprintf("gm: clone marshal: %v", err))
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("gm: clone unmarshal: %v", err))
	}
	out.Normalize()
	return &out
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}
