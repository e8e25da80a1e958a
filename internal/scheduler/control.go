package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/botcast-dev/botcast/internal/domain"
)

// ErrBotNotFound reports a control request for a bot that does not exist.
var ErrBotNotFound = errors.New("bot not found")

// Refresh reconciles botID's timer with its stored configuration and
// reports whether a timer is live afterwards.
//
// An eligible bot with a running timer is left untouched (the countdown is
// not reset), an eligible bot without one gets a fresh success-path delay,
// and an ineligible bot has any timer cancelled. Calling Refresh twice with
// unchanged configuration changes nothing the second time.
func (r *Runner) Refresh(ctx context.Context, botID string) (bool, error) {
	bot, err := r.repo.GetBot(ctx, botID)
	if err != nil {
		return false, fmt.Errorf("load bot: %w", err)
	}
	if bot == nil {
		return false, ErrBotNotFound
	}

	creds, err := r.repo.GetCredentials(ctx, botID)
	if err != nil {
		return false, fmt.Errorf("load credentials: %w", err)
	}

	if !bot.Eligible(creds) {
		r.sched.Cancel(botID)
		slog.Info("bot descheduled", "bot_id", botID, "autonomous", bot.IsAutonomous)
		return false, nil
	}

	if r.sched.IsActive(botID) {
		return true, nil
	}

	// Schedule the next fire as if a run had just completed, not an
	// immediate one.
	delay := r.delays.Next(bot.TweetFrequencyMinutes)
	r.sched.Schedule(botID, delay)
	slog.Info("bot scheduled", "bot_id", botID, "next_fire_in", delay)
	return true, nil
}

// Status reports the control-surface view of botID's schedule.
func (r *Runner) Status(ctx context.Context, botID string) (*domain.BotStatus, error) {
	bot, err := r.repo.GetBot(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("load bot: %w", err)
	}
	if bot == nil {
		return nil, ErrBotNotFound
	}

	status := &domain.BotStatus{
		IsRunning:    r.sched.IsActive(botID),
		IsAutonomous: bot.IsAutonomous,
		LastTweetAt:  bot.LastTweetAt,
	}
	if remaining, ok := r.sched.TimeRemaining(botID); ok {
		secs := int64(remaining.Seconds())
		status.NextTweetIn = &secs
	}
	return status, nil
}
