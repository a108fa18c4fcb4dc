package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/gatekeeper/internal/engine"
	"github.com/jwebster45206/gatekeeper/pkg/scene"
)

// ConversationHandler serves conversation state and the gatekeeper
// operations scoped to one conversation.
//
// Routes:
// POST   /v1/conversations                       - Create a conversation
// GET    /v1/conversations/{id}                  - Read a conversation
// POST   /v1/conversations/{id}/messages         - Append a message
// POST   /v1/conversations/{id}/cycle            - Run a decision cycle
// GET    /v1/conversations/{id}/injection        - Read pending injection for a character
// DELETE /v1/conversations/{id}/injection        - Clear the injection slot
// GET    /v1/conversations/{id}/document         - Read the GM document
// DELETE /v1/conversations/{id}/document         - Reset the GM document
// POST   /v1/conversations/{id}/seeds            - Plant a user seed
// DELETE /v1/conversations/{id}/seeds/{seedID}   - Remove a user seed
type ConversationHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewConversationHandler(engine *engine.Engine, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{
		engine: engine,
		logger: logger,
	}
}

func (h *ConversationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/conversations"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create a conversation")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	convID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid conversation ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid conversation ID format")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use GET to read a conversation")
			return
		}
		h.handleRead(w, r, convID)
		return
	}

	switch parts[1] {
	case "messages":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use POST to append a message")
			return
		}
		h.handleAppendMessage(w, r, convID)

	case "cycle":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use POST to run a cycle")
			return
		}
		h.handleCycle(w, r, convID)

	case "injection":
		switch r.Method {
		case http.MethodGet:
			h.handleGetInjection(w, r, convID)
		case http.MethodDelete:
			h.handleClearInjection(w, r, convID)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}

	case "document":
		switch r.Method {
		case http.MethodGet:
			h.handleGetDocument(w, r, convID)
		case http.MethodDelete:
			h.handleResetDocument(w, r, convID)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}

	case "seeds":
		if len(parts) == 3 && r.Method == http.MethodDelete {
			h.handleRemoveSeed(w, r, convID, parts[2])
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use POST to plant a seed")
			return
		}
		h.handleAddSeed(w, r, convID)

	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown conversation resource")
	}
}

// CreateConversationRequest defines the request body for creating a
// conversation
type CreateConversationRequest struct {
	Characters []scene.Character `json:"characters"`
}

func (h *ConversationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	conv, err := h.engine.CreateConversation(r.Context(), req.Characters)
	if err != nil {
		h.logger.Error("Failed to create conversation", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create conversation")
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.logger, conv)
}

func (h *ConversationHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	conv, err := h.engine.GetConversation(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load conversation", "conversation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load conversation")
		return
	}
	if conv == nil {
		writeError(w, h.logger, http.StatusNotFound, "Conversation not found")
		return
	}
	writeJSON(w, h.logger, conv)
}

// AppendMessageRequest defines the request body for appending a message
type AppendMessageRequest struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

func (h *ConversationHandler) handleAppendMessage(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if req.Role != scene.SpeakerUser && req.Role != scene.SpeakerCharacter {
		writeError(w, h.logger, http.StatusBadRequest, "Role must be 'user' or 'character'")
		return
	}
	if req.Content == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Content is required")
		return
	}

	err := h.engine.AppendMessage(r.Context(), id, scene.Message{
		Role:    req.Role,
		Name:    req.Name,
		Content: req.Content,
	})
	if err != nil {
		h.logger.Error("Failed to append message", "conversation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to append message")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) handleCycle(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	result, err := h.engine.RunCycle(r.Context(), id)
	if err != nil {
		h.logger.Error("Decision cycle failed", "conversation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Decision cycle failed")
		return
	}
	writeJSON(w, h.logger, result)
}

// InjectionResponse carries the formatted directive for one character.
// Text is empty when nothing is pending for that character.
type InjectionResponse struct {
	Character string `json:"character"`
	Text      string `json:"text"`
}

func (h *ConversationHandler) handleGetInjection(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	character := r.URL.Query().Get("character")
	if character == "" {
		// Introspection: the raw pending injection, or null
		pending, err := h.engine.PendingInjection(r.Context(), id)
		if err != nil {
			h.logger.Error("Failed to read pending injection", "conversation_id", id.String(), "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to read pending injection")
			return
		}
		writeJSON(w, h.logger, pending)
		return
	}

	text, err := h.engine.GetInjectionForCharacter(r.Context(), id, character)
	if err != nil {
		h.logger.Error("Failed to read injection", "conversation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to read injection")
		return
	}

	writeJSON(w, h.logger, InjectionResponse{Character: character, Text: text})
}

func (h *ConversationHandler) handleClearInjection(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.engine.ClearInjection(r.Context(), id); err != nil {
		h.logger.Error("Failed to clear injection", "conversation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to clear injection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) handleGetDocument(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	doc, err := h.engine.Document(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load GM document", "conversation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load GM document")
		return
	}
	if doc == nil {
		writeError(w, h.logger, http.StatusNotFound, "Conversation not found")
		return
	}
	writeJSON(w, h.logger, doc)
}

func (h *ConversationHandler) handleResetDocument(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.engine.ResetDocument(r.Context(), id); err != nil {
		h.logger.Error("Failed to reset GM document", "conversation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to reset GM document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSeedRequest defines the request body for planting a user seed
type AddSeedRequest struct {
	Text string `json:"text"`
}

func (h *ConversationHandler) handleAddSeed(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req AddSeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Seed text is required")
		return
	}

	seed, err := h.engine.AddUserSeed(r.Context(), id, strings.TrimSpace(req.Text))
	if err != nil {
		h.logger.Error("Failed to add seed", "conversation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to add seed")
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.logger, seed)
}

func (h *ConversationHandler) handleRemoveSeed(w http.ResponseWriter, r *http.Request, id uuid.UUID, seedIDStr string) {
	seedID, err := strconv.ParseInt(seedIDStr, 10, 64)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid seed ID format")
		return
	}

	removed, err := h.engine.RemoveUserSeed(r.Context(), id, seedID)
	if err != nil {
		h.logger.Error("Failed to remove seed", "conversation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to remove seed")
		return
	}
	if !removed {
		writeError(w, h.logger, http.StatusNotFound, "Seed not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}
