// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/botcast-dev/botcast/internal/domain"
)

// Repository defines the interface for reading bot configuration and
// recording run results. The worker only ever reads bot rows and writes
// last_tweet_at plus the posts it publishes; bot lifecycle belongs to the
// web tier.
type Repository interface {
	// GetBot retrieves a bot by id. Returns (nil, nil) when absent.
	GetBot(ctx context.Context, botID string) (*domain.Bot, error)

	// ListAutonomousBots retrieves every bot with the autonomy flag set.
	ListAutonomousBots(ctx context.Context) ([]*domain.Bot, error)

	// GetCredentials retrieves a bot's publishing credentials.
	// Returns (nil, nil) when absent.
	GetCredentials(ctx context.Context, botID string) (*domain.Credentials, error)

	// GetFeatureToggles retrieves a bot's live-data toggles. Bots with no
	// toggle row get the zero value (everything off).
	GetFeatureToggles(ctx context.Context, botID string) (domain.FeatureToggles, error)

	// RecentMessages returns the most recent limit messages for a bot in
	// chronological order, oldest first.
	RecentMessages(ctx context.Context, botID string, limit int) ([]domain.ChatMessage, error)

	// SaveMessage appends a message to a bot's history.
	SaveMessage(ctx context.Context, msg *domain.ChatMessage) error

	// UpdateLastTweetAt records the time of a successful publication.
	UpdateLastTweetAt(ctx context.Context, botID string, at time.Time) error

	// UpsertBot creates or updates a bot record.
	UpsertBot(ctx context.Context, bot *domain.Bot) error

	// UpsertCredentials creates or updates a bot's credential bundle.
	UpsertCredentials(ctx context.Context, creds *domain.Credentials) error

	// UpsertFeatureToggles creates or updates a bot's toggle row.
	UpsertFeatureToggles(ctx context.Context, botID string, toggles domain.FeatureToggles) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
