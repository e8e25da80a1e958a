package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/botcast-dev/botcast/internal/scheduler"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the bot control-surface routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/refresh-bot", h.RefreshBot)
	r.Get("/bot-status/{botID}", h.BotStatus)
	r.Post("/generate-tweet", h.GenerateTweet)
}

type botIDRequest struct {
	BotID string `json:"botId"`
}

func decodeBotID(r *http.Request) (string, bool) {
	var req botIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BotID == "" {
		return "", false
	}
	return req.BotID, true
}

// RefreshBot reconciles a bot's timer with its stored configuration. The
// web tier calls this after any change to a bot's autonomy settings.
func (h *Handler) RefreshBot(w http.ResponseWriter, r *http.Request) {
	botID, ok := decodeBotID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "botId is required")
		return
	}

	started, err := h.control.Refresh(r.Context(), botID)
	if errors.Is(err, scheduler.ErrBotNotFound) {
		Error(w, http.StatusNotFound, "bot not found")
		return
	}
	if err != nil {
		slog.Error("refresh bot failed", "bot_id", botID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to refresh bot")
		return
	}

	status := "stopped"
	if started {
		status = "started"
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  status,
	})
}

// BotStatus reports whether a bot's timer is live, its autonomy flag, the
// last publication time, and the seconds until the next fire.
func (h *Handler) BotStatus(w http.ResponseWriter, r *http.Request) {
	botID := chi.URLParam(r, "botID")
	if botID == "" {
		Error(w, http.StatusBadRequest, "botID is required")
		return
	}

	status, err := h.control.Status(r.Context(), botID)
	if errors.Is(err, scheduler.ErrBotNotFound) {
		Error(w, http.StatusNotFound, "bot not found")
		return
	}
	if err != nil {
		slog.Error("bot status failed", "bot_id", botID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to read bot status")
		return
	}

	JSON(w, http.StatusOK, status)
}

// GenerateTweet produces a draft post on demand without publishing it or
// touching the schedule.
func (h *Handler) GenerateTweet(w http.ResponseWriter, r *http.Request) {
	botID, ok := decodeBotID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "botId is required")
		return
	}

	tweet, err := h.control.GenerateOnce(r.Context(), botID)
	if errors.Is(err, scheduler.ErrBotNotFound) {
		Error(w, http.StatusNotFound, "bot not found")
		return
	}
	if err != nil {
		slog.Error("generate tweet failed", "bot_id", botID, "error", err)
		Error(w, http.StatusBadGateway, "failed to generate tweet")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"tweet": tweet})
}
