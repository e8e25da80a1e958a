package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/botcast-dev/botcast/internal/domain"
	"github.com/botcast-dev/botcast/internal/provider"
)

// GenerateOnce produces a draft post for a bot without publishing it and
// without touching the schedule. Unlike the background path, the
// interactive path gets one regeneration retry when the draft is over the
// cap; only a still-overlong retry is truncated.
func (r *Runner) GenerateOnce(ctx context.Context, botID string) (string, error) {
	bot, err := r.repo.GetBot(ctx, botID)
	if err != nil {
		return "", fmt.Errorf("load bot: %w", err)
	}
	if bot == nil {
		return "", ErrBotNotFound
	}

	history, err := r.repo.RecentMessages(ctx, botID, r.cfg.HistoryLimit)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	log := slog.With("bot_id", botID)
	toggles, err := r.repo.GetFeatureToggles(ctx, botID)
	if err != nil {
		log.Warn("load feature toggles failed, continuing without live data", "error", err)
		toggles = domain.FeatureToggles{}
	}
	live := r.gatherLiveContext(ctx, toggles, log)

	req := r.generateRequest(bot, history, live)
	draft, err := r.content.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	draft = provider.CleanDraft(draft)
	if draft == "" {
		return "", errors.New("content provider returned no usable text")
	}

	if len([]rune(draft)) > r.cfg.MaxPostLength {
		req.Shorter = true
		retry, err := r.content.Generate(ctx, req)
		if err != nil {
			log.Warn("regeneration failed, truncating first draft", "error", err)
		} else if cleaned := provider.CleanDraft(retry); cleaned != "" {
			draft = cleaned
		}
	}

	return Truncate(draft, r.cfg.MaxPostLength), nil
}
