package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/gatekeeper/pkg/gm"
	"github.com/jwebster45206/gatekeeper/pkg/scene"
)

// MockStorage is an in-memory implementation of Storage for testing
type MockStorage struct {
	PingFunc             func(ctx context.Context) error
	SaveConversationFunc func(ctx context.Context, conv *scene.Conversation) error
	LoadConversationFunc func(ctx context.Context, id uuid.UUID) (*scene.Conversation, error)
	SaveDocumentFunc     func(ctx context.Context, id uuid.UUID, doc *gm.Document) error
	LoadDocumentFunc     func(ctx context.Context, id uuid.UUID) (*gm.Document, error)
	SaveSettingsFunc     func(ctx context.Context, settings *gm.Settings) error
	LoadSettingsFunc     func(ctx context.Context) (*gm.Settings, error)

	conversations map[uuid.UUID]*scene.Conversation
	documents     map[uuid.UUID]*gm.Document
	settings      *gm.Settings

	// Track calls for testing
	SaveDocumentCalls []uuid.UUID
	SaveSettingsCalls int

	mu sync.Mutex // protects all fields above
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new in-memory mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		conversations: make(map[uuid.UUID]*scene.Conversation),
		documents:     make(map[uuid.UUID]*gm.Document),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) WaitForConnection(ctx context.Context) error {
	return m.Ping(ctx)
}

func (m *MockStorage) SaveConversation(ctx context.Context, conv *scene.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveConversationFunc != nil {
		return m.SaveConversationFunc(ctx, conv)
	}
	m.conversations[conv.ID] = conv
	return nil
}

func (m *MockStorage) LoadConversation(ctx context.Context, id uuid.UUID) (*scene.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadConversationFunc != nil {
		return m.LoadConversationFunc(ctx, id)
	}
	return m.conversations[id], nil
}

func (m *MockStorage) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, id)
	return nil
}

func (m *MockStorage) SaveDocument(ctx context.Context, id uuid.UUID, doc *gm.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveDocumentCalls = append(m.SaveDocumentCalls, id)
	if m.SaveDocumentFunc != nil {
		return m.SaveDocumentFunc(ctx, id, doc)
	}
	m.documents[id] = doc
	return nil
}

func (m *MockStorage) LoadDocument(ctx context.Context, id uuid.UUID) (*gm.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadDocumentFunc != nil {
		return m.LoadDocumentFunc(ctx, id)
	}
	return m.documents[id], nil
}

func (m *MockStorage) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, id)
	return nil
}

func (m *MockStorage) SaveSettings(ctx context.Context, settings *gm.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveSettingsCalls++
	if m.SaveSettingsFunc != nil {
		return m.SaveSettingsFunc(ctx, settings)
	}
	m.settings = settings
	return nil
}

func (m *MockStorage) LoadSettings(ctx context.Context) (*gm.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadSettingsFunc != nil {
		return m.LoadSettingsFunc(ctx)
	}
	return m.settings, nil
}
