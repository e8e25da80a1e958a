package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/botcast-dev/botcast/internal/domain"
	"github.com/botcast-dev/botcast/internal/livedata"
	"github.com/botcast-dev/botcast/internal/provider"
)

// fakeRepo is an in-memory store.Repository.
type fakeRepo struct {
	mu       sync.Mutex
	bots     map[string]*domain.Bot
	creds    map[string]*domain.Credentials
	toggles  map[string]domain.FeatureToggles
	messages map[string][]domain.ChatMessage

	historyErr error
	updateErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		bots:     make(map[string]*domain.Bot),
		creds:    make(map[string]*domain.Credentials),
		toggles:  make(map[string]domain.FeatureToggles),
		messages: make(map[string][]domain.ChatMessage),
	}
}

func (f *fakeRepo) GetBot(ctx context.Context, botID string) (*domain.Bot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bot, ok := f.bots[botID]
	if !ok {
		return nil, nil
	}
	cp := *bot
	return &cp, nil
}

func (f *fakeRepo) ListAutonomousBots(ctx context.Context) ([]*domain.Bot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var bots []*domain.Bot
	for _, bot := range f.bots {
		if bot.IsAutonomous {
			cp := *bot
			bots = append(bots, &cp)
		}
	}
	return bots, nil
}

func (f *fakeRepo) GetCredentials(ctx context.Context, botID string) (*domain.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	creds, ok := f.creds[botID]
	if !ok {
		return nil, nil
	}
	cp := *creds
	return &cp, nil
}

func (f *fakeRepo) GetFeatureToggles(ctx context.Context, botID string) (domain.FeatureToggles, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toggles[botID], nil
}

func (f *fakeRepo) RecentMessages(ctx context.Context, botID string, limit int) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	msgs := f.messages[botID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (f *fakeRepo) SaveMessage(ctx context.Context, msg *domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[msg.BotID] = append(f.messages[msg.BotID], *msg)
	return nil
}

func (f *fakeRepo) UpdateLastTweetAt(ctx context.Context, botID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if bot, ok := f.bots[botID]; ok {
		ts := at
		bot.LastTweetAt = &ts
	}
	return nil
}

func (f *fakeRepo) UpsertBot(ctx context.Context, bot *domain.Bot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *bot
	f.bots[bot.ID] = &cp
	return nil
}

func (f *fakeRepo) UpsertCredentials(ctx context.Context, creds *domain.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *creds
	f.creds[creds.BotID] = &cp
	return nil
}

func (f *fakeRepo) UpsertFeatureToggles(ctx context.Context, botID string, t domain.FeatureToggles) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles[botID] = t
	return nil
}

func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

func (f *fakeRepo) setAutonomous(botID string, autonomous bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bot, ok := f.bots[botID]; ok {
		bot.IsAutonomous = autonomous
	}
}

func (f *fakeRepo) lastTweetAt(botID string) *time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bot, ok := f.bots[botID]; ok {
		return bot.LastTweetAt
	}
	return nil
}

// fakeContent is a canned ContentProvider. onGenerate, when set, runs
// before each response so tests can mutate state mid-run.
type fakeContent struct {
	mu         sync.Mutex
	text       string
	err        error
	calls      []provider.GenerateRequest
	onGenerate func()
}

func (f *fakeContent) Generate(ctx context.Context, req provider.GenerateRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	hook := f.onGenerate
	text, err := f.text, f.err
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return text, err
}

func (f *fakeContent) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakePublisher records published texts.
type fakePublisher struct {
	mu        sync.Mutex
	err       error
	published []string
}

func (f *fakePublisher) Publish(ctx context.Context, creds *domain.Credentials, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, text)
	return "post-1", nil
}

func (f *fakePublisher) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.published))
	copy(out, f.published)
	return out
}

type fakeCoin struct {
	v   string
	err error
}

func (f fakeCoin) CoinData(ctx context.Context, symbol string) (string, error) {
	return f.v, f.err
}

func seedBot(repo *fakeRepo, id string, freq int, autonomous, withCreds bool) {
	repo.UpsertBot(context.Background(), &domain.Bot{
		ID:                    id,
		Name:                  "Nova",
		Handle:                "nova_ai",
		Bio:                   "synthetic optimist",
		IsAutonomous:          autonomous,
		TweetFrequencyMinutes: freq,
	})
	if withCreds {
		repo.UpsertCredentials(context.Background(), &domain.Credentials{
			BotID:        id,
			APIKey:       "k",
			APISecret:    "s",
			AccessToken:  "t",
			AccessSecret: "ts",
		})
	}
}

func newTestRunner(repo *fakeRepo, content *fakeContent, pub *fakePublisher, live livedata.Sources) *Runner {
	return NewRunner(context.Background(), repo, content, pub, live, NewDelays(), DefaultRunConfig())
}
