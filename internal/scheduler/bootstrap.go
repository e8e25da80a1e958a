package scheduler

import (
	"context"
	"fmt"
	"log/slog"
)

// Bootstrap seeds a timer for every bot that is autonomous with valid
// credentials. Initial delays are drawn from [0, 30m) so a deploy does not
// fire the whole fleet at once; the normal jittered cadence takes over
// after each bot's first run.
func (r *Runner) Bootstrap(ctx context.Context) error {
	bots, err := r.repo.ListAutonomousBots(ctx)
	if err != nil {
		return fmt.Errorf("list autonomous bots: %w", err)
	}

	seeded := 0
	for _, bot := range bots {
		creds, err := r.repo.GetCredentials(ctx, bot.ID)
		if err != nil {
			slog.Warn("bootstrap: load credentials failed, skipping bot", "bot_id", bot.ID, "error", err)
			continue
		}
		if !bot.Eligible(creds) {
			continue
		}

		delay := r.delays.Bootstrap()
		r.sched.Schedule(bot.ID, delay)
		slog.Info("bot scheduled", "bot_id", bot.ID, "initial_delay", delay)
		seeded++
	}

	slog.Info("bootstrap complete", "autonomous", len(bots), "scheduled", seeded)
	return nil
}
