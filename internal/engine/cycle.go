package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/gatekeeper/pkg/gm"
	"github.com/jwebster45206/gatekeeper/pkg/prompts"
)

// oracleTimeout bounds one decision request. The timeout is derived from a
// fresh context so a disconnecting host cannot abandon a merge in flight.
const oracleTimeout = 60 * time.Second

// CycleOutcome is the terminal state of a decision cycle
type CycleOutcome string

const (
	// OutcomeInjected means a directive was placed in the injection slot
	OutcomeInjected CycleOutcome = "injected"
	// OutcomeHeld means the oracle chose not to intervene
	OutcomeHeld CycleOutcome = "held"
	// OutcomeAborted means the cycle ended early with no state change
	OutcomeAborted CycleOutcome = "aborted"
)

// CycleResult reports how a decision cycle ended. Decision is nil when the
// cycle aborted before a valid decision was parsed.
type CycleResult struct {
	Outcome  CycleOutcome `json:"outcome"`
	Decision *gm.Decision `json:"decision,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

func aborted(reason string) *CycleResult {
	return &CycleResult{Outcome: OutcomeAborted, Reason: reason}
}

// RunCycle runs one full decision cycle for a conversation: snapshot the
// scene, consult the oracle, parse its decision, merge the document update,
// and arm or clear the injection slot. Aborts leave the GM document and
// injection slot untouched.
func (e *Engine) RunCycle(ctx context.Context, id uuid.UUID) (*CycleResult, error) {
	settings := e.Settings()
	if !settings.Enabled {
		return aborted("gatekeeper disabled"), nil
	}

	s, err := e.session(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return aborted("conversation not found"), nil
	}

	e.mu.Lock()
	snap := prompts.NewBuilder().
		WithConversation(s.Conversation).
		WithSettings(&settings).
		WithDocument(s.Document).
		Build()
	e.mu.Unlock()

	if snap == nil {
		return aborted("nothing to snapshot"), nil
	}

	messages, err := prompts.Messages(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	// Fresh context: once the oracle is consulted, the merge must not be
	// interrupted by the caller going away.
	oracleCtx, cancel := context.WithTimeout(context.Background(), oracleTimeout)
	defer cancel()

	raw, err := e.oracle.Decide(oracleCtx, messages)
	if err != nil {
		e.logger.Warn("Oracle request failed", "conversation_id", id.String(), "error", err)
		return aborted("oracle unavailable"), nil
	}

	decision, err := gm.ParseDecision(raw)
	if err != nil {
		var violation *gm.ContractViolationError
		if errors.As(err, &violation) {
			e.logger.Warn("Oracle contract violation",
				"conversation_id", id.String(),
				"reason", violation.Reason,
				"raw", violation.Raw)
			return aborted("contract violation: " + violation.Reason), nil
		}
		return nil, err
	}

	if decision.DocumentUpdate != nil {
		if err := e.mergeDocument(ctx, s, decision.DocumentUpdate); err != nil {
			return nil, err
		}
	}

	result := &CycleResult{Decision: decision}
	if decision.Action == gm.ActionHold {
		s.Slot.Clear()
		result.Outcome = OutcomeHeld
	} else {
		s.Slot.Set(decision.Action, decision.Target, decision.Content)
		result.Outcome = OutcomeInjected
	}

	e.logger.Info("Decision cycle complete",
		"conversation_id", id.String(),
		"outcome", result.Outcome,
		"action", decision.Action,
		"target", decision.Target)

	return result, nil
}

// mergeDocument replaces the session's GM document with the oracle's
// update. The update is trusted wholesale; seed status transitions the
// oracle made are copied back into the authoritative settings copy.
func (e *Engine) mergeDocument(ctx context.Context, s *Session, update *gm.Document) error {
	doc := update.Clone()

	e.mu.Lock()
	s.Document = doc
	e.mu.Unlock()

	e.syncSeedStatuses(doc.UserSeeds)

	if err := e.storage.SaveDocument(ctx, s.ID, doc); err != nil {
		return fmt.Errorf("failed to persist GM document: %w", err)
	}
	return nil
}

// syncSeedStatuses copies oracle-made status transitions from the document
// projection back to the settings seeds, matched by ID. Text and membership
// stay settings-owned.
func (e *Engine) syncSeedStatuses(docSeeds []gm.Seed) {
	if len(docSeeds) == 0 {
		return
	}

	statuses := make(map[int64]gm.SeedStatus, len(docSeeds))
	for _, seed := range docSeeds {
		if seed.Status.Valid() {
			statuses[seed.ID] = seed.Status
		}
	}

	e.UpdateSettings(func(settings *gm.Settings) {
		for i := range settings.UserSeeds {
			if status, ok := statuses[settings.UserSeeds[i].ID]; ok {
				settings.UserSeeds[i].Status = status
			}
		}
	})
}
