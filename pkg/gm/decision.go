package gm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Action is the oracle's chosen intervention for a turn.
type Action string

const (
	ActionWhisper Action = "whisper" // hidden context for a character to act on
	ActionPlant   Action = "plant"   // a subtle detail to surface now, for later payoff
	ActionNudge   Action = "nudge"   // an emotional or priority shift
	ActionSpawn   Action = "spawn"   // a new element entering the scene
	ActionHold    Action = "hold"    // no intervention this turn
)

func (a Action) Valid() bool {
	switch a {
	case ActionWhisper, ActionPlant, ActionNudge, ActionSpawn, ActionHold:
		return true
	}
	return false
}

// Decision is one oracle verdict. It lives for a single cycle; only the
// document update facet is persisted.
type Decision struct {
	Action         Action
	Target         string // empty when untargeted or on hold
	Content        string
	Reasoning      string
	DocumentUpdate *Document // nil when the oracle sent no update
}

// ContractViolationError reports oracle output that failed structural
// validation. Raw carries the offending text for diagnosis.
type ContractViolationError struct {
	Reason string
	Raw    string
}

func (e *ContractViolationError) Error() string {
	return "oracle contract violation: " + e.Reason
}

// decisionWire is the decode target for the oracle's JSON. Unknown top-level
// fields are ignored, per the wire contract.
type decisionWire struct {
	Action         *string         `json:"action"`
	Target         *string         `json:"target"`
	Content        string          `json:"content"`
	Reasoning      string          `json:"reasoning"`
	DocumentUpdate json.RawMessage `json:"gm_document_update"`
}

// ParseDecision turns raw oracle text into a validated Decision. The oracle
// is instructed to emit bare JSON but models routinely wrap it in a fenced
// code block, so a single leading/trailing fence is stripped first.
//
// Any failure is a *ContractViolationError; the caller's state is untouched.
func ParseDecision(raw string) (*Decision, error) {
	clean := stripFence(raw)

	var wire decisionWire
	if err := json.Unmarshal([]byte(clean), &wire); err != nil {
		return nil, &ContractViolationError{
			Reason: fmt.Sprintf("undecodable response: %v", err),
			Raw:    raw,
		}
	}

	if wire.Action == nil {
		return nil, &ContractViolationError{Reason: "missing action", Raw: raw}
	}
	action := Action(*wire.Action)
	if !action.Valid() {
		return nil, &ContractViolationError{
			Reason: fmt.Sprintf("unknown action %q", *wire.Action),
			Raw:    raw,
		}
	}

	d := &Decision{
		Action:    action,
		Content:   wire.Content,
		Reasoning: wire.Reasoning,
	}
	// Target is forwarded even when it names a character outside the current
	// roster; it is resolved at consumption time. On hold the target is
	// meaningless and dropped.
	if wire.Target != nil && action != ActionHold {
		d.Target = *wire.Target
	}

	if update, err := parseDocumentUpdate(wire.DocumentUpdate, raw); err != nil {
		return nil, err
	} else {
		d.DocumentUpdate = update
	}

	return d, nil
}

// parseDocumentUpdate validates the gm_document_update facet. A present but
// structurally incompatible update rejects the whole decision: partial
// world-state corruption is worse than a skipped turn.
func parseDocumentUpdate(raw json.RawMessage, original string) (*Document, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	if !isJSONObject(raw) {
		return nil, &ContractViolationError{
			Reason: "gm_document_update is not an object",
			Raw:    original,
		}
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ContractViolationError{
			Reason: fmt.Sprintf("gm_document_update does not match the document shape: %v", err),
			Raw:    original,
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, &ContractViolationError{
			Reason: fmt.Sprintf("gm_document_update invalid: %v", err),
			Raw:    original,
		}
	}
	doc.Normalize()
	return &doc, nil
}

// stripFence removes one leading and trailing markdown code fence, if
// present.
func stripFence(raw string) string {
	clean := strings.TrimSpace(raw)
	if strings.HasPrefix(clean, "```json") {
		clean = clean[len("```json"):]
	} else if strings.HasPrefix(clean, "```") {
		clean = clean[len("```"):]
	}
	if strings.HasSuffix(clean, "```") {
		clean = clean[:len(clean)-len("```")]
	}
	return strings.TrimSpace(clean)
}
