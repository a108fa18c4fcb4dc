package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/gatekeeper/pkg/gm"
	"github.com/jwebster45206/gatekeeper/pkg/scene"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage defines the interface for conversation, GM document, and settings
// persistence
type Storage interface {
	HealthChecker
	Closer

	// WaitForConnection blocks until the backend is reachable or ctx ends
	WaitForConnection(ctx context.Context) error

	// SaveConversation saves a conversation by its UUID
	SaveConversation(ctx context.Context, conv *scene.Conversation) error

	// LoadConversation retrieves a conversation by UUID.
	// Returns nil if the conversation doesn't exist.
	LoadConversation(ctx context.Context, id uuid.UUID) (*scene.Conversation, error)

	// DeleteConversation removes a conversation by UUID
	DeleteConversation(ctx context.Context, id uuid.UUID) error

	// SaveDocument saves the GM document for a conversation
	SaveDocument(ctx context.Context, id uuid.UUID, doc *gm.Document) error

	// LoadDocument retrieves the GM document for a conversation.
	// Returns nil if no document has been saved.
	LoadDocument(ctx context.Context, id uuid.UUID) (*gm.Document, error)

	// DeleteDocument removes the GM document for a conversation
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	// SaveSettings saves the global gatekeeper settings
	SaveSettings(ctx context.Context, settings *gm.Settings) error

	// LoadSettings retrieves the global gatekeeper settings.
	// Returns nil if no settings have been saved.
	LoadSettings(ctx context.Context) (*gm.Settings, error)
}
