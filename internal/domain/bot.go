// Package domain contains core domain types for the botcast application.
package domain

import (
	"time"
)

// Bot represents one AI persona capable of autonomous posting.
type Bot struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Handle        string `json:"handle"`
	Bio           string `json:"bio"`
	PersonaPrompt string `json:"persona_prompt"`
	// TweetPrompt overrides the default generation template when set.
	TweetPrompt           string     `json:"tweet_prompt,omitempty"`
	IsAutonomous          bool       `json:"is_autonomous"`
	TweetFrequencyMinutes int        `json:"tweet_frequency_minutes"`
	LastTweetAt           *time.Time `json:"last_tweet_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Eligible reports whether the bot should have a live timer: the autonomy
// flag is set and a usable credential bundle exists.
func (b *Bot) Eligible(creds *Credentials) bool {
	return b.IsAutonomous && creds.Valid()
}

// Credentials is the per-bot publishing credential bundle. The worker treats
// it as opaque beyond completeness checking; the publisher client knows how
// to sign with it.
type Credentials struct {
	BotID        string
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// Valid reports whether the bundle is complete enough to publish with.
func (c *Credentials) Valid() bool {
	return c != nil &&
		c.APIKey != "" && c.APISecret != "" &&
		c.AccessToken != "" && c.AccessSecret != ""
}

// FeatureToggles selects which live-data sources feed a bot's posts.
// Toggles that were never set default to false.
type FeatureToggles struct {
	CoinData     bool
	News         bool
	Weather      bool
	ExchangeRate bool

	// Per-source parameters; empty values fall back to fetcher defaults.
	CoinSymbol  string
	WeatherCity string
	RateBase    string
	RateQuote   string
}

// Any reports whether at least one source is enabled.
func (t FeatureToggles) Any() bool {
	return t.CoinData || t.News || t.Weather || t.ExchangeRate
}
