// Package provider holds clients for the external services the worker
// drives: the content model that writes posts and the network that
// publishes them.
package provider

import (
	"context"
	"strings"

	"github.com/botcast-dev/botcast/internal/domain"
)

// GenerateRequest carries everything the content provider needs for one
// draft: the persona, the chronological chat window, whichever live-data
// fields were gathered, and the length cap.
type GenerateRequest struct {
	Name          string
	Handle        string
	Bio           string
	PersonaPrompt string
	// CustomPrompt replaces the default persona framing when set.
	CustomPrompt string
	History      []domain.ChatMessage
	Live         domain.LiveContext
	MaxLength    int
	// Shorter marks a regeneration pass after an overlong draft.
	Shorter bool
}

// ContentProvider produces post text for a persona.
type ContentProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// CleanDraft strips the whitespace and wrapping quotes models habitually
// add around short-form output.
func CleanDraft(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}
