package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/gatekeeper/internal/engine"
	"github.com/jwebster45206/gatekeeper/pkg/gm"
)

// SettingsHandler serves the global gatekeeper settings.
//
// Routes:
// GET   /v1/settings - Read current settings
// PATCH /v1/settings - Update settings (partial)
type SettingsHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewSettingsHandler(engine *engine.Engine, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		engine: engine,
		logger: logger,
	}
}

// UpdateSettingsRequest carries a partial settings update. Absent fields are
// left unchanged. Seeds are managed through the conversation seed endpoints,
// not here.
type UpdateSettingsRequest struct {
	Enabled       *bool   `json:"enabled,omitempty"`
	Setting       *string `json:"setting,omitempty"`
	Tone          *string `json:"tone,omitempty"`
	Pacing        *string `json:"pacing,omitempty"`
	ChaosFactor   *int    `json:"chaos_factor,omitempty"`
	ContentRating *string `json:"content_rating,omitempty"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		settings := h.engine.Settings()
		writeJSON(w, h.logger, settings)

	case http.MethodPatch:
		var req UpdateSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("Invalid JSON in request body", "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}

		updated := h.engine.UpdateSettings(func(s *gm.Settings) {
			if req.Enabled != nil {
				s.Enabled = *req.Enabled
			}
			if req.Setting != nil {
				s.World.Setting = *req.Setting
			}
			if req.Tone != nil {
				s.World.Tone = *req.Tone
			}
			if req.Pacing != nil {
				s.World.Pacing = *req.Pacing
			}
			if req.ChaosFactor != nil {
				s.World.ChaosFactor = *req.ChaosFactor
			}
			if req.ContentRating != nil {
				s.ContentRating = *req.ContentRating
			}
		})

		h.logger.Info("Settings updated", "enabled", updated.Enabled, "chaos_factor", updated.World.ChaosFactor)
		writeJSON(w, h.logger, updated)

	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PATCH")
	}
}
