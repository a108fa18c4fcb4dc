package gm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validUpdate = `{
	"active_threads": [{"thread": "the stranger's letter"}],
	"planted_seeds": [],
	"character_states": {"Mira": {"mood": "uneasy"}},
	"knowledge_map": {"user_knows": [], "characters": {"Mira": ["knows about the letter"]}},
	"pending_ideas": [],
	"world_state": {
		"confirmed_exists": ["the harbor town"],
		"implied_possible": ["a rival courier"],
		"current_tension": "building"
	},
	"user_seeds": []
}`

func TestParseDecision_Valid(t *testing.T) {
	raw := `{"action":"whisper","target":"Mira","content":"You recognize the handwriting.","reasoning":"pays off the letter thread","gm_document_update":` + validUpdate + `}`

	d, err := ParseDecision(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionWhisper, d.Action)
	assert.Equal(t, "Mira", d.Target)
	assert.Equal(t, "You recognize the handwriting.", d.Content)
	require.NotNil(t, d.DocumentUpdate)
	assert.Equal(t, TensionBuilding, d.DocumentUpdate.WorldState.CurrentTension)
	assert.Len(t, d.DocumentUpdate.ActiveThreads, 1)
}

func TestParseDecision_FenceStripping(t *testing.T) {
	inner := `{"action":"hold","target":null,"content":"","reasoning":"scene is breathing"}`

	tests := []struct {
		name string
		raw  string
	}{
		{"bare", inner},
		{"json fence", "```json\n" + inner + "\n```"},
		{"anonymous fence", "```\n" + inner + "\n```"},
		{"fence with surrounding whitespace", "  ```json\n" + inner + "\n```  \n"},
	}

	want, err := ParseDecision(inner)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecision(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseDecision_ContractViolations(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{
			name:   "not JSON",
			raw:    "I have decided to whisper to Mira.",
			reason: "undecodable",
		},
		{
			name:   "unknown action",
			raw:    `{"action":"teleport","target":"Mira","content":"x","reasoning":"r"}`,
			reason: "unknown action",
		},
		{
			name:   "missing action",
			raw:    `{"target":"Mira","content":"x","reasoning":"r"}`,
			reason: "missing action",
		},
		{
			name:   "update is not an object",
			raw:    `{"action":"plant","target":null,"content":"x","reasoning":"r","gm_document_update":[1,2,3]}`,
			reason: "not an object",
		},
		{
			name:   "update field has wrong type",
			raw:    `{"action":"plant","target":null,"content":"x","reasoning":"r","gm_document_update":{"active_threads":"nope","world_state":{"current_tension":"neutral"}}}`,
			reason: "document shape",
		},
		{
			name:   "update has unknown tension",
			raw:    `{"action":"plant","target":null,"content":"x","reasoning":"r","gm_document_update":{"world_state":{"confirmed_exists":[],"implied_possible":[],"current_tension":"exploding"}}}`,
			reason: "current_tension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDecision(tt.raw)
			require.Error(t, err)
			assert.Nil(t, d)

			var violation *ContractViolationError
			require.ErrorAs(t, err, &violation)
			assert.Contains(t, violation.Reason, tt.reason)
			assert.Equal(t, tt.raw, violation.Raw)
		})
	}
}

func TestParseDecision_HoldDropsTarget(t *testing.T) {
	d, err := ParseDecision(`{"action":"hold","target":"Mira","content":"","reasoning":"quiet turn"}`)
	require.NoError(t, err)
	assert.Equal(t, ActionHold, d.Action)
	assert.Empty(t, d.Target)
}

func TestParseDecision_NullTarget(t *testing.T) {
	d, err := ParseDecision(`{"action":"plant","target":null,"content":"a cold draft","reasoning":"r"}`)
	require.NoError(t, err)
	assert.Empty(t, d.Target)
}

func TestParseDecision_IgnoresUnknownFields(t *testing.T) {
	d, err := ParseDecision(`{"action":"nudge","target":"Bram","content":"impatience","reasoning":"r","confidence":0.9,"mood":"wry"}`)
	require.NoError(t, err)
	assert.Equal(t, ActionNudge, d.Action)
	assert.Equal(t, "Bram", d.Target)
}

func TestParseDecision_UpdateMayBeAbsentOrNull(t *testing.T) {
	for _, raw := range []string{
		`{"action":"hold","target":null,"content":"","reasoning":"r"}`,
		`{"action":"hold","target":null,"content":"","reasoning":"r","gm_document_update":null}`,
	} {
		d, err := ParseDecision(raw)
		require.NoError(t, err)
		assert.Nil(t, d.DocumentUpdate)
	}
}
