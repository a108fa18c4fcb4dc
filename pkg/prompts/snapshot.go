package prompts

import (
	"github.com/jwebster45206/gatekeeper/pkg/gm"
	"github.com/jwebster45206/gatekeeper/pkg/scene"
)

// SnapshotHistoryLimit is the fixed window of recent messages included in a
// snapshot.
const SnapshotHistoryLimit = 10

// Snapshot is the bounded, immutable view of conversation state submitted to
// the oracle for one decision cycle.
type Snapshot struct {
	World          gm.WorldSettings  `json:"world_settings"`
	Characters     []scene.Character `json:"characters"`
	RecentMessages []scene.Message   `json:"recent_messages"`
	UserSeeds      []gm.Seed         `json:"user_seeds"`
	Document       *gm.Document      `json:"current_gm_document"`
}

// Builder assembles decision-cycle snapshots using a fluent interface. It
// separates snapshot assembly from session state management.
type Builder struct {
	conversation *scene.Conversation
	settings     *gm.Settings
	document     *gm.Document
	historyLimit int
}

// NewBuilder creates a snapshot builder with default settings.
func NewBuilder() *Builder {
	return &Builder{historyLimit: SnapshotHistoryLimit}
}

// WithConversation sets the host conversation. A nil conversation makes
// Build return a nil snapshot, which signals the orchestrator to abort the
// cycle silently.
func (b *Builder) WithConversation(c *scene.Conversation) *Builder {
	b.conversation = c
	return b
}

// WithSettings sets the gatekeeper settings (world style and user seeds).
func (b *Builder) WithSettings(s *gm.Settings) *Builder {
	b.settings = s
	return b
}

// WithDocument sets the current GM document. When nil, the default skeleton
// is used.
func (b *Builder) WithDocument(d *gm.Document) *Builder {
	b.document = d
	return b
}

// WithHistoryLimit overrides the recent-message window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build assembles the snapshot. It reads state and never mutates it; the
// returned snapshot holds copies of the mutable pieces.
func (b *Builder) Build() *Snapshot {
	if b.conversation == nil {
		return nil
	}

	settings := b.settings
	if settings == nil {
		settings = gm.NewSettings()
	}

	doc := b.document
	if doc == nil {
		doc = gm.NewDocument()
	}

	recent := b.conversation.RecentMessages(b.historyLimit)
	messages := make([]scene.Message, len(recent))
	copy(messages, recent)

	return &Snapshot{
		World:          settings.World,
		Characters:     b.conversation.Roster(),
		RecentMessages: messages,
		UserSeeds:      settings.UnresolvedSeeds(),
		Document:       doc.Clone(),
	}
}
