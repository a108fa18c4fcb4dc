package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/gatekeeper/pkg/gm"
	"github.com/jwebster45206/gatekeeper/pkg/scene"
)

const (
	conversationKeyPrefix = "conversation:"
	documentKeyPrefix     = "gmdoc:"
	settingsKey           = "gatekeeper:settings"
)

// RedisStorage implements the Storage interface using Redis
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Debug("Redis ping successful", "result", cmd.Val())
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis not reachable after %d attempts", maxRetries)
}

func (r *RedisStorage) SaveConversation(ctx context.Context, conv *scene.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	key := conversationKeyPrefix + conv.ID.String()
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		r.logger.Error("Redis SET failed", "key", key, "error", err)
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	r.logger.Debug("Conversation saved", "key", key)
	return nil
}

func (r *RedisStorage) LoadConversation(ctx context.Context, id uuid.UUID) (*scene.Conversation, error) {
	key := conversationKeyPrefix + id.String()
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			r.logger.Debug("Conversation not found", "key", key)
			return nil, nil
		}
		r.logger.Error("Redis GET failed", "key", key, "error", err)
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	var conv scene.Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	return &conv, nil
}

func (r *RedisStorage) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	key := conversationKeyPrefix + id.String()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Redis DEL failed", "key", key, "error", err)
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	return nil
}

func (r *RedisStorage) SaveDocument(ctx context.Context, id uuid.UUID, doc *gm.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal GM document: %w", err)
	}

	key := documentKeyPrefix + id.String()
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		r.logger.Error("Redis SET failed", "key", key, "error", err)
		return fmt.Errorf("failed to save GM document: %w", err)
	}

	r.logger.Debug("GM document saved", "key", key)
	return nil
}

func (r *RedisStorage) LoadDocument(ctx context.Context, id uuid.UUID) (*gm.Document, error) {
	key := documentKeyPrefix + id.String()
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			r.logger.Debug("GM document not found", "key", key)
			return nil, nil
		}
		r.logger.Error("Redis GET failed", "key", key, "error", err)
		return nil, fmt.Errorf("failed to load GM document: %w", err)
	}

	var doc gm.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal GM document: %w", err)
	}

	doc.Normalize()
	return &doc, nil
}

func (r *RedisStorage) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	key := documentKeyPrefix + id.String()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Redis DEL failed", "key", key, "error", err)
		return fmt.Errorf("failed to delete GM document: %w", err)
	}

	return nil
}

func (r *RedisStorage) SaveSettings(ctx context.Context, settings *gm.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := r.client.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		r.logger.Error("Redis SET failed", "key", settingsKey, "error", err)
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadSettings(ctx context.Context) (*gm.Settings, error) {
	data, err := r.client.Get(ctx, settingsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Redis GET failed", "key", settingsKey, "error", err)
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings gm.Settings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	settings.Normalize()
	return &settings, nil
}
