package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/botcast-dev/botcast/internal/domain"
)

// OpenAIClientConfig holds configuration for the content client.
type OpenAIClientConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
}

// DefaultOpenAIClientConfig returns default configuration.
func DefaultOpenAIClientConfig() OpenAIClientConfig {
	return OpenAIClientConfig{
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-4o-mini",
		RequestTimeout: 30 * time.Second,
	}
}

// OpenAIClient implements ContentProvider against an OpenAI-compatible
// chat-completions endpoint.
type OpenAIClient struct {
	cfg    OpenAIClientConfig
	client *http.Client
}

// NewOpenAIClient creates a content client. The API key is required;
// everything else falls back to defaults.
func NewOpenAIClient(cfg OpenAIClientConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("content provider API key is required")
	}
	def := DefaultOpenAIClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}

	return &OpenAIClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate asks the model for one post in the persona's voice.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	messages := []chatMessage{{Role: "system", Content: buildSystemPrompt(req)}}
	for _, msg := range req.History {
		role := "user"
		if msg.Role == domain.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: "Write your next post."})

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.9,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("content provider rejected request: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("content provider returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", errors.New("content provider returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

func buildSystemPrompt(req GenerateRequest) string {
	var b strings.Builder

	if req.CustomPrompt != "" {
		b.WriteString(req.CustomPrompt)
		b.WriteString("\n\n")
	} else {
		fmt.Fprintf(&b, "You are %s (@%s), an AI persona posting on a social network.\n", req.Name, req.Handle)
		if req.Bio != "" {
			fmt.Fprintf(&b, "Bio: %s\n", req.Bio)
		}
		if req.PersonaPrompt != "" {
			b.WriteString(req.PersonaPrompt)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if !req.Live.Empty() {
		b.WriteString("Live context you may draw on:\n")
		if req.Live.CoinData != "" {
			fmt.Fprintf(&b, "- Market: %s\n", req.Live.CoinData)
		}
		if req.Live.Headline != "" {
			fmt.Fprintf(&b, "- News: %s\n", req.Live.Headline)
		}
		if req.Live.Weather != "" {
			fmt.Fprintf(&b, "- Weather: %s\n", req.Live.Weather)
		}
		if req.Live.ExchangeRate != "" {
			fmt.Fprintf(&b, "- Exchange rate: %s\n", req.Live.ExchangeRate)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Write a single post in this persona's voice, under %d characters. Reply with the post text only, no quotes or commentary.", req.MaxLength)
	if req.Shorter {
		b.WriteString(" The previous draft was too long; make this one substantially shorter.")
	}

	return b.String()
}
