package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/botcast-dev/botcast/internal/domain"
	"github.com/dghubble/oauth1"
)

// Publisher posts text to the social network on behalf of a bot and returns
// the publication id.
type Publisher interface {
	Publish(ctx context.Context, creds *domain.Credentials, text string) (string, error)
}

// XClient implements Publisher against the X (Twitter) v2 posting API.
// Credentials are per-bot, so the OAuth1-signing client is built per call.
type XClient struct {
	baseURL string
	timeout time.Duration
}

// NewXClient creates a publisher. An empty baseURL targets the real API.
func NewXClient(baseURL string) *XClient {
	if baseURL == "" {
		baseURL = "https://api.twitter.com"
	}
	return &XClient{baseURL: baseURL, timeout: 30 * time.Second}
}

type postTweetRequest struct {
	Text string `json:"text"`
}

type postTweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Detail string `json:"detail"`
	Title  string `json:"title"`
}

// Publish posts text with the bot's credentials and returns the tweet id.
func (c *XClient) Publish(ctx context.Context, creds *domain.Credentials, text string) (string, error) {
	if !creds.Valid() {
		return "", errors.New("incomplete publishing credentials")
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := config.Client(ctx, token)
	httpClient.Timeout = c.timeout

	body, err := json.Marshal(postTweetRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("encode tweet request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post tweet: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read tweet response: %w", err)
	}

	var parsed postTweetResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode tweet response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Detail != "" {
			return "", fmt.Errorf("publication rejected: %s", parsed.Detail)
		}
		return "", fmt.Errorf("publication returned status %d", resp.StatusCode)
	}
	if parsed.Data.ID == "" {
		return "", errors.New("publication response missing tweet id")
	}

	return parsed.Data.ID, nil
}
