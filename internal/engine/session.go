package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/gatekeeper/internal/services"
	"github.com/jwebster45206/gatekeeper/internal/storage"
	"github.com/jwebster45206/gatekeeper/pkg/gm"
	"github.com/jwebster45206/gatekeeper/pkg/scene"
	"github.com/jwebster45206/gatekeeper/pkg/textfilter"
)

// settingsSaveDelay coalesces bursts of settings edits into one write
const settingsSaveDelay = time.Second

// Session holds the live state for one conversation: its GM document and
// the single pending injection slot.
type Session struct {
	ID           uuid.UUID
	Conversation *scene.Conversation
	Document     *gm.Document
	Slot         *gm.Slot
}

// Engine coordinates conversations, the oracle, and per-conversation GM
// state. Settings are global across conversations.
type Engine struct {
	storage storage.Storage
	oracle  services.OracleService
	logger  *slog.Logger
	filter  *textfilter.InjectionFilter
	saver   *storage.DebouncedSaver

	mu       sync.Mutex
	settings *gm.Settings
	sessions map[uuid.UUID]*Session
}

func NewEngine(store storage.Storage, oracle services.OracleService, logger *slog.Logger) *Engine {
	return &Engine{
		storage:  store,
		oracle:   oracle,
		logger:   logger,
		filter:   textfilter.NewInjectionFilter(),
		saver:    storage.NewDebouncedSaver(store, settingsSaveDelay, logger),
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Bootstrap loads persisted settings, falling back to defaults when none
// are saved yet.
func (e *Engine) Bootstrap(ctx context.Context) error {
	settings, err := e.storage.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		settings = gm.NewSettings()
	}

	e.mu.Lock()
	e.settings = settings
	e.mu.Unlock()

	e.logger.Info("Gatekeeper engine ready", "enabled", settings.Enabled)
	return nil
}

// Close flushes pending saves
func (e *Engine) Close() {
	e.saver.Flush()
}

// Settings returns a copy of the current global settings
func (e *Engine) Settings() gm.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.settings == nil {
		e.settings = gm.NewSettings()
	}
	return *e.settings
}

// UpdateSettings applies fn to the global settings under lock and schedules
// a debounced save.
func (e *Engine) UpdateSettings(fn func(*gm.Settings)) gm.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.settings == nil {
		e.settings = gm.NewSettings()
	}
	fn(e.settings)
	e.settings.Normalize()

	snapshot := *e.settings
	e.saver.Request(&snapshot)
	return snapshot
}

// CreateConversation starts a new conversation with the given cast and
// persists it.
func (e *Engine) CreateConversation(ctx context.Context, characters []scene.Character) (*scene.Conversation, error) {
	conv := scene.NewConversation(characters)

	if err := e.storage.SaveConversation(ctx, conv); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.sessions[conv.ID] = &Session{
		ID:           conv.ID,
		Conversation: conv,
		Document:     gm.NewDocument(),
		Slot:         &gm.Slot{},
	}
	e.mu.Unlock()

	e.logger.Info("Conversation created", "conversation_id", conv.ID.String())
	return conv, nil
}

// session returns the live session for a conversation, loading it from
// storage on first access. Returns nil if the conversation doesn't exist.
func (e *Engine) session(ctx context.Context, id uuid.UUID) (*Session, error) {
	e.mu.Lock()
	if s, ok := e.sessions[id]; ok {
		e.mu.Unlock()
		return s, nil
	}
	e.mu.Unlock()

	conv, err := e.storage.LoadConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, nil
	}

	doc, err := e.storage.LoadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = gm.NewDocument()
	}

	s := &Session{
		ID:           id,
		Conversation: conv,
		Document:     doc,
		Slot:         &gm.Slot{},
	}

	e.mu.Lock()
	// Another goroutine may have loaded it first
	if existing, ok := e.sessions[id]; ok {
		s = existing
	} else {
		e.sessions[id] = s
	}
	e.mu.Unlock()

	return s, nil
}

// GetConversation returns the conversation, or nil if it doesn't exist
func (e *Engine) GetConversation(ctx context.Context, id uuid.UUID) (*scene.Conversation, error) {
	s, err := e.session(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}
	return s.Conversation, nil
}

// AppendMessage adds a message to a conversation and persists it
func (e *Engine) AppendMessage(ctx context.Context, id uuid.UUID, msg scene.Message) error {
	s, err := e.session(ctx, id)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("conversation %s not found", id)
	}

	e.mu.Lock()
	s.Conversation.Append(msg)
	conv := s.Conversation
	e.mu.Unlock()

	return e.storage.SaveConversation(ctx, conv)
}

// Document returns a copy of the conversation's GM document, or nil if
// the conversation doesn't exist.
func (e *Engine) Document(ctx context.Context, id uuid.UUID) (*gm.Document, error) {
	s, err := e.session(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return s.Document.Clone(), nil
}

// GetInjectionForCharacter returns the formatted hidden directive for the
// named character, filtered to the configured content rating. Empty string
// means nothing is pending for that character. Reading does not clear the
// slot.
func (e *Engine) GetInjectionForCharacter(ctx context.Context, id uuid.UUID, characterName string) (string, error) {
	s, err := e.session(ctx, id)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", fmt.Errorf("conversation %s not found", id)
	}

	text := s.Slot.Get(characterName)
	if text == "" {
		return "", nil
	}

	rating := e.Settings().ContentRating
	return e.filter.Apply(text, rating), nil
}

// PendingInjection returns a copy of the raw pending injection, or nil
func (e *Engine) PendingInjection(ctx context.Context, id uuid.UUID) (*gm.Injection, error) {
	s, err := e.session(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}
	return s.Slot.Pending(), nil
}

// ClearInjection empties the conversation's injection slot
func (e *Engine) ClearInjection(ctx context.Context, id uuid.UUID) error {
	s, err := e.session(ctx, id)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("conversation %s not found", id)
	}
	s.Slot.Clear()
	return nil
}

// AddUserSeed records a new story seed in the global settings and projects
// it into the conversation's GM document so the oracle sees it in context.
func (e *Engine) AddUserSeed(ctx context.Context, id uuid.UUID, text string) (*gm.Seed, error) {
	s, err := e.session(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("conversation %s not found", id)
	}

	var seed gm.Seed
	e.UpdateSettings(func(settings *gm.Settings) {
		seed = settings.AddSeed(text)
	})

	e.mu.Lock()
	s.Document.UserSeeds = append(s.Document.UserSeeds, seed)
	doc := s.Document
	e.mu.Unlock()

	if err := e.storage.SaveDocument(ctx, id, doc); err != nil {
		return nil, err
	}

	e.logger.Debug("User seed planted", "conversation_id", id.String(), "seed_id", seed.ID)
	return &seed, nil
}

// RemoveUserSeed deletes a seed from settings and from the conversation's
// document projection. Returns false if no seed had the given ID.
func (e *Engine) RemoveUserSeed(ctx context.Context, id uuid.UUID, seedID int64) (bool, error) {
	s, err := e.session(ctx, id)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, fmt.Errorf("conversation %s not found", id)
	}

	removed := false
	e.UpdateSettings(func(settings *gm.Settings) {
		removed = settings.RemoveSeed(seedID)
	})

	e.mu.Lock()
	kept := s.Document.UserSeeds[:0]
	for _, seed := range s.Document.UserSeeds {
		if seed.ID != seedID {
			kept = append(kept, seed)
		}
	}
	s.Document.UserSeeds = kept
	doc := s.Document
	e.mu.Unlock()

	if err := e.storage.SaveDocument(ctx, id, doc); err != nil {
		return removed, err
	}

	return removed, nil
}

// ResetDocument discards the conversation's GM document and pending
// injection, restoring the skeleton.
func (e *Engine) ResetDocument(ctx context.Context, id uuid.UUID) error {
	s, err := e.session(ctx, id)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("conversation %s not found", id)
	}

	e.mu.Lock()
	s.Document = gm.NewDocument()
	doc := s.Document
	e.mu.Unlock()

	s.Slot.Clear()
	return e.storage.SaveDocument(ctx, id, doc)
}

// Invalidate drops the cached session so the next access reloads from
// storage
func (e *Engine) Invalidate(id uuid.UUID) {
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
}
