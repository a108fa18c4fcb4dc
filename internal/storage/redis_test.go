package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/jwebster45206/gatekeeper/pkg/gm"
	"github.com/jwebster45206/gatekeeper/pkg/scene"
)

func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := NewRedisStorage(mr.Addr(), logger)

	return store, mr
}

func TestRedisStorage_Conversation(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	conv := scene.NewConversation([]scene.Character{
		{Name: "Mira", Description: "An herbalist with a guarded past"},
	})
	conv.Append(scene.Message{Role: scene.SpeakerUser, Content: "Hello"})

	if err := store.SaveConversation(ctx, conv); err != nil {
		t.Fatalf("Failed to save conversation: %v", err)
	}

	loaded, err := store.LoadConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Failed to load conversation: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected conversation, got nil")
	}
	if loaded.ID != conv.ID {
		t.Errorf("Expected ID %s, got %s", conv.ID, loaded.ID)
	}
	if len(loaded.Messages) != 1 {
		t.Errorf("Expected 1 message, got %d", len(loaded.Messages))
	}
	if len(loaded.Characters) != 1 || loaded.Characters[0].Name != "Mira" {
		t.Errorf("Expected character Mira, got %+v", loaded.Characters)
	}

	if err := store.DeleteConversation(ctx, conv.ID); err != nil {
		t.Fatalf("Failed to delete conversation: %v", err)
	}

	loaded, err = store.LoadConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Load after delete failed: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil after delete")
	}
}

func TestRedisStorage_Document(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	id := uuid.New()

	// Missing document is not an error
	loaded, err := store.LoadDocument(ctx, id)
	if err != nil {
		t.Fatalf("Load of missing document failed: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for missing document")
	}

	doc := gm.NewDocument()
	doc.WorldState.ConfirmedExists = []string{"the locked cellar"}
	doc.WorldState.CurrentTension = gm.TensionBuilding

	if err := store.SaveDocument(ctx, id, doc); err != nil {
		t.Fatalf("Failed to save document: %v", err)
	}

	loaded, err = store.LoadDocument(ctx, id)
	if err != nil {
		t.Fatalf("Failed to load document: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected document, got nil")
	}
	if loaded.WorldState.CurrentTension != gm.TensionBuilding {
		t.Errorf("Expected tension building, got %s", loaded.WorldState.CurrentTension)
	}
	if len(loaded.WorldState.ConfirmedExists) != 1 {
		t.Errorf("Expected 1 confirmed item, got %d", len(loaded.WorldState.ConfirmedExists))
	}

	// Loaded documents are normalized
	if loaded.ActiveThreads == nil {
		t.Error("Expected active threads to be non-nil after load")
	}
	if loaded.CharacterStates == nil {
		t.Error("Expected character states to be non-nil after load")
	}
}

func TestRedisStorage_Settings(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	loaded, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("Load of missing settings failed: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for missing settings")
	}

	settings := gm.NewSettings()
	settings.Enabled = true
	settings.World.ChaosFactor = 4
	settings.AddSeed("a stranger leaves a coded note")

	if err := store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}

	loaded, err = store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected settings, got nil")
	}
	if !loaded.Enabled {
		t.Error("Expected enabled settings")
	}
	if loaded.World.ChaosFactor != 4 {
		t.Errorf("Expected chaos factor 4, got %d", loaded.World.ChaosFactor)
	}
	if len(loaded.UserSeeds) != 1 {
		t.Errorf("Expected 1 seed, got %d", len(loaded.UserSeeds))
	}
}

func TestRedisStorage_Ping(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Expected ping to succeed: %v", err)
	}

	mr.Close()
	if err := store.Ping(ctx); err == nil {
		t.Error("Expected ping to fail after server close")
	}
}
