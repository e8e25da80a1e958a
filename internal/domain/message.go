package domain

import (
	"time"
)

// Message roles as stored in chat history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in a bot's conversation history. The web tier
// writes user turns; the worker appends the posts it publishes.
type ChatMessage struct {
	ID        int64     `json:"id"`
	BotID     string    `json:"bot_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// LiveContext carries the optional live-data fields gathered for one run.
// Absent fields stay empty; the prompt builder skips them.
type LiveContext struct {
	CoinData     string
	Headline     string
	Weather      string
	ExchangeRate string
}

// Empty reports whether no live-data field was gathered.
func (lc LiveContext) Empty() bool {
	return lc.CoinData == "" && lc.Headline == "" && lc.Weather == "" && lc.ExchangeRate == ""
}

// BotStatus is the control-surface view of one bot's schedule.
type BotStatus struct {
	IsRunning    bool       `json:"isRunning"`
	IsAutonomous bool       `json:"isAutonomous"`
	LastTweetAt  *time.Time `json:"lastTweetAt"`
	// NextTweetIn is seconds until the next fire, nil when no timer is live.
	NextTweetIn *int64 `json:"nextTweetIn"`
}
