package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/botcast-dev/botcast/internal/domain"
	"github.com/botcast-dev/botcast/internal/livedata"
	"github.com/botcast-dev/botcast/internal/provider"
	"github.com/botcast-dev/botcast/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RunConfig bounds a single run.
type RunConfig struct {
	// Timeout caps the whole run so a hung provider call lands in the
	// failure backoff instead of stalling the bot forever.
	Timeout time.Duration
	// HistoryLimit is the size of the chat window fed to generation.
	HistoryLimit int
	// MaxPostLength is the publication medium's hard length cap, in runes.
	MaxPostLength int
}

// DefaultRunConfig returns the stock run bounds.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Timeout:       2 * time.Minute,
		HistoryLimit:  25,
		MaxPostLength: 280,
	}
}

// Runner executes one generate-and-publish attempt per timer fire and
// installs the next timer: jittered after success, fixed after failure.
// It owns the Scheduler whose fires call back into Run.
type Runner struct {
	repo    store.Repository
	content provider.ContentProvider
	pub     provider.Publisher
	live    livedata.Sources
	sched   *Scheduler
	delays  *Delays
	cfg     RunConfig
}

// NewRunner wires a Runner and its Scheduler. ctx bounds every run the
// scheduler starts.
func NewRunner(ctx context.Context, repo store.Repository, content provider.ContentProvider, pub provider.Publisher, live livedata.Sources, delays *Delays, cfg RunConfig) *Runner {
	r := &Runner{
		repo:    repo,
		content: content,
		pub:     pub,
		live:    live,
		delays:  delays,
		cfg:     cfg,
	}
	r.sched = New(ctx, r.Run)
	return r
}

// Scheduler exposes the timer table, primarily for main and tests.
func (r *Runner) Scheduler() *Scheduler {
	return r.sched
}

// Run executes exactly one generate-and-publish attempt for botID.
//
// A bot that turns out to be missing or ineligible is descheduled silently;
// any transient failure schedules the fixed retry. Exactly one publication
// attempt happens per call, and last_tweet_at is written only on success.
func (r *Runner) Run(ctx context.Context, botID string) {
	log := slog.With("bot_id", botID, "run_id", uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	bot, err := r.repo.GetBot(ctx, botID)
	if err != nil {
		log.Error("load bot failed", "error", err)
		r.scheduleRetry(botID, log)
		return
	}
	creds, err := r.repo.GetCredentials(ctx, botID)
	if err != nil {
		log.Error("load credentials failed", "error", err)
		r.scheduleRetry(botID, log)
		return
	}
	if bot == nil || !bot.Eligible(creds) {
		// Not an error: the bot was deleted or turned off since the timer
		// was armed. Descheduled until a control-surface refresh.
		log.Info("bot no longer eligible, descheduling")
		return
	}

	history, err := r.repo.RecentMessages(ctx, botID, r.cfg.HistoryLimit)
	if err != nil {
		log.Error("load history failed", "error", err)
		r.scheduleRetry(botID, log)
		return
	}

	toggles, err := r.repo.GetFeatureToggles(ctx, botID)
	if err != nil {
		log.Warn("load feature toggles failed, continuing without live data", "error", err)
		toggles = domain.FeatureToggles{}
	}
	live := r.gatherLiveContext(ctx, toggles, log)

	draft, err := r.content.Generate(ctx, r.generateRequest(bot, history, live))
	if err != nil {
		log.Error("content generation failed", "error", err)
		r.scheduleRetry(botID, log)
		return
	}
	draft = provider.CleanDraft(draft)
	if draft == "" {
		log.Error("content provider returned no usable text")
		r.scheduleRetry(botID, log)
		return
	}
	text := Truncate(draft, r.cfg.MaxPostLength)

	// Re-read eligibility just before publishing. This shrinks, but cannot
	// close, the window where a stop request races an in-flight run.
	if cur, err := r.repo.GetBot(ctx, botID); err == nil && (cur == nil || !cur.IsAutonomous) {
		log.Info("bot disabled mid-run, dropping post")
		return
	}

	postID, err := r.pub.Publish(ctx, creds, text)
	if err != nil {
		log.Error("publish failed", "error", err)
		r.scheduleRetry(botID, log)
		return
	}

	now := time.Now()
	if err := r.repo.UpdateLastTweetAt(ctx, botID, now); err != nil {
		log.Error("record last tweet time failed", "error", err)
		r.scheduleRetry(botID, log)
		return
	}

	// Keep the published post in the bot's own history so future prompts
	// see it. Failure here is not worth a re-post.
	if err := r.repo.SaveMessage(ctx, &domain.ChatMessage{
		BotID:     botID,
		Role:      domain.RoleAssistant,
		Content:   text,
		CreatedAt: now,
	}); err != nil {
		log.Warn("record posted message failed", "error", err)
	}

	delay := r.delays.Next(bot.TweetFrequencyMinutes)
	r.sched.Schedule(botID, delay)
	log.Info("post published", "post_id", postID, "length", len([]rune(text)), "next_fire_in", delay)
}

func (r *Runner) scheduleRetry(botID string, log *slog.Logger) {
	delay := r.delays.Retry()
	r.sched.ScheduleRetry(botID, delay)
	log.Warn("run failed, retry scheduled", "retry_in", delay)
}

func (r *Runner) generateRequest(bot *domain.Bot, history []domain.ChatMessage, live domain.LiveContext) provider.GenerateRequest {
	return provider.GenerateRequest{
		Name:          bot.Name,
		Handle:        bot.Handle,
		Bio:           bot.Bio,
		PersonaPrompt: bot.PersonaPrompt,
		CustomPrompt:  bot.TweetPrompt,
		History:       history,
		Live:          live,
		MaxLength:     r.cfg.MaxPostLength,
	}
}

// gatherLiveContext fetches the enabled live-data fields concurrently.
// Every fetch is best-effort: a failed or disabled source just leaves its
// field absent and never aborts the run.
func (r *Runner) gatherLiveContext(ctx context.Context, t domain.FeatureToggles, log *slog.Logger) domain.LiveContext {
	var live domain.LiveContext
	if !t.Any() {
		return live
	}

	g, ctx := errgroup.WithContext(ctx)
	if t.CoinData && r.live.Coin != nil {
		g.Go(func() error {
			v, err := r.live.Coin.CoinData(ctx, t.CoinSymbol)
			if err != nil {
				log.Warn("coin data fetch failed", "error", err)
				return nil
			}
			live.CoinData = v
			return nil
		})
	}
	if t.News && r.live.News != nil {
		g.Go(func() error {
			v, err := r.live.News.TopHeadline(ctx)
			if err != nil {
				log.Warn("headline fetch failed", "error", err)
				return nil
			}
			live.Headline = v
			return nil
		})
	}
	if t.Weather && r.live.Weather != nil {
		g.Go(func() error {
			v, err := r.live.Weather.Current(ctx, t.WeatherCity)
			if err != nil {
				log.Warn("weather fetch failed", "error", err)
				return nil
			}
			live.Weather = v
			return nil
		})
	}
	if t.ExchangeRate && r.live.Rates != nil {
		g.Go(func() error {
			v, err := r.live.Rates.Rate(ctx, t.RateBase, t.RateQuote)
			if err != nil {
				log.Warn("exchange rate fetch failed", "error", err)
				return nil
			}
			live.ExchangeRate = v
			return nil
		})
	}
	// Fetch errors are swallowed above; Wait only orders the field writes.
	_ = g.Wait()

	return live
}

// Truncate enforces the medium's hard length cap, in runes. Overlong drafts
// are cut and ellipsized; the background path never regenerates.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
