// Package api provides HTTP handlers for the botcast control surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/botcast-dev/botcast/internal/domain"
)

// Control is the scheduler surface the web tier drives. *scheduler.Runner
// satisfies it; tests substitute fakes.
type Control interface {
	Refresh(ctx context.Context, botID string) (bool, error)
	Status(ctx context.Context, botID string) (*domain.BotStatus, error)
	GenerateOnce(ctx context.Context, botID string) (string, error)
}

// Handler provides common handler utilities.
type Handler struct {
	control Control
}

// NewHandler creates a new Handler.
func NewHandler(control Control) *Handler {
	return &Handler{control: control}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
