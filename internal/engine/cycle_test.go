package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/gatekeeper/internal/services"
	"github.com/jwebster45206/gatekeeper/internal/storage"
	"github.com/jwebster45206/gatekeeper/pkg/chat"
	"github.com/jwebster45206/gatekeeper/pkg/gm"
	"github.com/jwebster45206/gatekeeper/pkg/scene"
)

const fullUpdate = `{
	"active_threads": [{"thread": "the letter", "urgency": "low"}],
	"planted_seeds": [],
	"character_states": {"Mira": {"mood": "uneasy"}},
	"knowledge_map": {"user_knows": [], "characters": {}},
	"pending_ideas": [],
	"world_state": {
		"confirmed_exists": ["the village post office"],
		"implied_possible": [],
		"current_tension": "building"
	},
	"user_seeds": []
}`

func newTestEngine(t *testing.T, oracle services.OracleService) (*Engine, *storage.MockStorage) {
	t.Helper()

	mock := storage.NewMockStorage()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := NewEngine(mock, oracle, logger)
	require.NoError(t, e.Bootstrap(context.Background()))
	e.UpdateSettings(func(s *gm.Settings) { s.Enabled = true })
	return e, mock
}

func testCast() []scene.Character {
	return []scene.Character{
		{Name: "Mira", Description: "An herbalist with a guarded past"},
		{Name: "Tobin", Description: "The village courier"},
	}
}

func startConversation(t *testing.T, e *Engine) *scene.Conversation {
	t.Helper()

	conv, err := e.CreateConversation(context.Background(), testCast())
	require.NoError(t, err)

	require.NoError(t, e.AppendMessage(context.Background(), conv.ID, scene.Message{
		Role: scene.SpeakerUser, Content: "I walk into the village square.",
	}))
	return conv
}

func docFingerprint(t *testing.T, doc *gm.Document) string {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(data)
}

func TestRunCycle_EndToEnd(t *testing.T) {
	oracle := services.NewMockOracle()
	oracle.DecideFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return fmt.Sprintf(`{
			"action": "spawn",
			"target": "Mira",
			"content": "A letter arrives",
			"reasoning": "payoff for the post office thread",
			"gm_document_update": %s
		}`, fullUpdate), nil
	}

	e, _ := newTestEngine(t, oracle)
	conv := startConversation(t, e)

	result, err := e.RunCycle(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeInjected, result.Outcome)
	require.NotNil(t, result.Decision)
	assert.Equal(t, gm.ActionSpawn, result.Decision.Action)

	doc, err := e.Document(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, gm.TensionBuilding, doc.WorldState.CurrentTension)
	assert.Contains(t, doc.CharacterStates, "Mira")

	text, err := e.GetInjectionForCharacter(context.Background(), conv.ID, "Mira")
	require.NoError(t, err)
	assert.Contains(t, text, "A letter arrives")
	assert.Contains(t, text, "NEW ELEMENT ENTERING SCENE")

	other, err := e.GetInjectionForCharacter(context.Background(), conv.ID, "Tobin")
	require.NoError(t, err)
	assert.Empty(t, other, "targeted injection must not reach other characters")
}

func TestRunCycle_DisabledIsNoOp(t *testing.T) {
	oracle := services.NewMockOracle()
	e, _ := newTestEngine(t, oracle)
	e.UpdateSettings(func(s *gm.Settings) { s.Enabled = false })
	conv := startConversation(t, e)

	result, err := e.RunCycle(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, result.Outcome)
	assert.Zero(t, oracle.DecideCallCount(), "disabled cycle must not consult the oracle")
}

func TestRunCycle_UnknownConversationAborts(t *testing.T) {
	oracle := services.NewMockOracle()
	e, _ := newTestEngine(t, oracle)
	conv := scene.NewConversation(nil)

	result, err := e.RunCycle(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, result.Outcome)
	assert.Zero(t, oracle.DecideCallCount())
}

func TestRunCycle_AbortLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name   string
		decide func(ctx context.Context, messages []chat.ChatMessage) (string, error)
	}{
		{
			name: "transport failure",
			decide: func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
				return "", fmt.Errorf("connection refused")
			},
		},
		{
			name: "contract violation",
			decide: func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
				return `{"action": "teleport", "content": "nope"}`, nil
			},
		},
		{
			name: "not JSON at all",
			decide: func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
				return "I think the scene is going well!", nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := services.NewMockOracle()
			oracle.DecideFunc = tt.decide

			e, _ := newTestEngine(t, oracle)
			conv := startConversation(t, e)

			// Arm the slot so we can see it survive the abort
			s, err := e.session(context.Background(), conv.ID)
			require.NoError(t, err)
			s.Slot.Set(gm.ActionWhisper, "Mira", "prior directive")

			before, err := e.Document(context.Background(), conv.ID)
			require.NoError(t, err)
			beforeJSON := docFingerprint(t, before)

			result, err := e.RunCycle(context.Background(), conv.ID)
			require.NoError(t, err)
			assert.Equal(t, OutcomeAborted, result.Outcome)
			assert.Nil(t, result.Decision)

			after, err := e.Document(context.Background(), conv.ID)
			require.NoError(t, err)
			assert.Equal(t, beforeJSON, docFingerprint(t, after), "document must be byte-identical after abort")

			pending, err := e.PendingInjection(context.Background(), conv.ID)
			require.NoError(t, err)
			require.NotNil(t, pending, "slot must survive an aborted cycle")
			assert.Equal(t, "prior directive", pending.Content)
		})
	}
}

func TestRunCycle_HoldClearsSlot(t *testing.T) {
	oracle := services.NewMockOracle()
	oracle.DecideFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return `{"action": "hold", "target": null, "content": "", "reasoning": "scene flows fine"}`, nil
	}

	e, _ := newTestEngine(t, oracle)
	conv := startConversation(t, e)

	s, err := e.session(context.Background(), conv.ID)
	require.NoError(t, err)
	s.Slot.Set(gm.ActionPlant, "", "stale detail")

	result, err := e.RunCycle(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHeld, result.Outcome)

	pending, err := e.PendingInjection(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Nil(t, pending, "hold must clear whatever was pending")
}

func TestRunCycle_HoldStillMergesUpdate(t *testing.T) {
	oracle := services.NewMockOracle()
	oracle.DecideFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return fmt.Sprintf(`{
			"action": "hold",
			"content": "",
			"reasoning": "observing, but noting the post office",
			"gm_document_update": %s
		}`, fullUpdate), nil
	}

	e, mock := newTestEngine(t, oracle)
	conv := startConversation(t, e)

	result, err := e.RunCycle(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHeld, result.Outcome)

	doc, err := e.Document(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, gm.TensionBuilding, doc.WorldState.CurrentTension)
	assert.NotEmpty(t, mock.SaveDocumentCalls, "merged document must be persisted")
}

func TestRunCycle_MergedDocumentHasCompleteShape(t *testing.T) {
	// The oracle omits collections; the merge must still yield the full shape
	oracle := services.NewMockOracle()
	oracle.DecideFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return `{
			"action": "nudge",
			"target": "Mira",
			"content": "grow suspicious of the courier",
			"reasoning": "r",
			"gm_document_update": {"world_state": {"current_tension": "peaking"}}
		}`, nil
	}

	e, _ := newTestEngine(t, oracle)
	conv := startConversation(t, e)

	result, err := e.RunCycle(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeInjected, result.Outcome)

	doc, err := e.Document(context.Background(), conv.ID)
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	data := docFingerprint(t, doc)
	assert.NotContains(t, data, "null", "merged document must never carry JSON nulls")
	assert.Contains(t, data, `"current_tension":"peaking"`)
}

func TestRunCycle_SeedStatusSyncsToSettings(t *testing.T) {
	e, _ := newTestEngine(t, services.NewMockOracle())
	conv := startConversation(t, e)

	seed, err := e.AddUserSeed(context.Background(), conv.ID, "someone recognizes the user")
	require.NoError(t, err)

	update := gm.NewDocument()
	update.UserSeeds = []gm.Seed{{ID: seed.ID, Text: seed.Text, Status: gm.SeedInProgress, Created: seed.Created}}
	updateJSON, err := json.Marshal(update)
	require.NoError(t, err)

	oracle := services.NewMockOracle()
	oracle.DecideFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return fmt.Sprintf(`{
			"action": "plant",
			"content": "a flicker of recognition",
			"reasoning": "starting the seed payoff",
			"gm_document_update": %s
		}`, string(updateJSON)), nil
	}
	e.oracle = oracle

	result, err := e.RunCycle(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeInjected, result.Outcome)

	settings := e.Settings()
	require.Len(t, settings.UserSeeds, 1)
	assert.Equal(t, gm.SeedInProgress, settings.UserSeeds[0].Status, "oracle status transition must reach settings")
	assert.Equal(t, "someone recognizes the user", settings.UserSeeds[0].Text)
}

func TestRunCycle_UntargetedBroadcast(t *testing.T) {
	oracle := services.NewMockOracle()
	oracle.DecideFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return `{"action": "plant", "target": null, "content": "the wind shifts", "reasoning": "r"}`, nil
	}

	e, _ := newTestEngine(t, oracle)
	conv := startConversation(t, e)

	result, err := e.RunCycle(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeInjected, result.Outcome)

	for _, name := range []string{"Mira", "Tobin", "Anyone"} {
		text, err := e.GetInjectionForCharacter(context.Background(), conv.ID, name)
		require.NoError(t, err)
		assert.Contains(t, text, "the wind shifts", "untargeted injection must reach %s", name)
		assert.Contains(t, text, "SUBTLE DETAIL")
	}
}

func TestRunCycle_SnapshotSentToOracle(t *testing.T) {
	oracle := services.NewMockOracle()
	e, _ := newTestEngine(t, oracle)
	e.UpdateSettings(func(s *gm.Settings) {
		s.World.Setting = "harbor town"
		s.AddSeed("a storm is coming")
	})
	conv := startConversation(t, e)

	_, err := e.RunCycle(context.Background(), conv.ID)
	require.NoError(t, err)

	require.Equal(t, 1, oracle.DecideCallCount())
	msgs := oracle.DecideCalls[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.ChatRoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Gatekeeper")
	assert.Equal(t, chat.ChatRoleUser, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "harbor town")
	assert.Contains(t, msgs[1].Content, "a storm is coming")
	assert.Contains(t, msgs[1].Content, "I walk into the village square.")
}
