package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultModel       = "claude-sonnet-4-5-20250929"
	defaultMaxTokens   = 100
	defaultMinInterval = 21 * time.Second
	defaultBaseURL     = "https://api.anthropic.com"
	messagesPath       = "/v1/messages"
	apiVersion         = "2023-06-01"

	systemPrompt = "You are a helpful assistant that suggests tasks based on user history."
)

var (
	// ErrRateLimited is returned when a call comes sooner than the
	// minimum interval after the previous one, or when the API answers
	// 429 Too Many Requests.
	ErrRateLimited = errors.New("suggestions requested too quickly, try again later")

	// ErrNoAPIKey is returned when no API key is configured.
	ErrNoAPIKey = errors.New("no AI API key configured")
)

// Config configures a Suggester. Zero values fall back to defaults.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	MinInterval time.Duration
	BaseURL     string
}

// Suggester asks a hosted chat model for task suggestions. Calls are
// spaced at least MinInterval apart.
type Suggester struct {
	apiKey      string
	model       string
	maxTokens   int
	minInterval time.Duration
	endpoint    string
	client      *http.Client
	logger      *zap.Logger
	now         func() time.Time

	mu   sync.Mutex
	last time.Time
}

// New creates a Suggester.
func New(cfg Config, logger *zap.Logger) *Suggester {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Suggester{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		minInterval: cfg.MinInterval,
		endpoint:    strings.TrimRight(cfg.BaseURL, "/") + messagesPath,
		client:      &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
		now:         time.Now,
	}
}

// Suggest sends the task history and returns the model's suggestion text.
func (s *Suggester) Suggest(ctx context.Context, history string) (string, error) {
	return s.ask(ctx, "Suggest tasks for a user based on their previous activities: "+history)
}

// SuggestNext asks for the single most important next task.
func (s *Suggester) SuggestNext(ctx context.Context, history string) (string, error) {
	return s.ask(ctx, "Here is the user's task history:\n"+history+
		"\n\nBased on this, suggest ONE most important task the user should do next. "+
		"Respond with a single actionable sentence.")
}

func (s *Suggester) ask(ctx context.Context, prompt string) (string, error) {
	if s.apiKey == "" {
		return "", ErrNoAPIKey
	}
	if !s.reserve() {
		return "", ErrRateLimited
	}

	resp, err := s.callAPI(ctx, prompt)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}

// reserve claims the next call slot, reporting false when the previous
// call was too recent.
func (s *Suggester) reserve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.last.IsZero() && now.Sub(s.last) < s.minInterval {
		return false
	}
	s.last = now
	return true
}

// callAPI makes a single request to the Messages API.
func (s *Suggester) callAPI(ctx context.Context, prompt string) (*apiResponse, error) {
	reqBody := apiRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System:    systemPrompt,
		Messages: []apiMessage{{
			Role:    "user",
			Content: []apiContentBlock{{Type: "text", Text: prompt}},
		}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling suggestion API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		s.logger.Warn("suggestion API rate limited", zap.String("model", s.model))
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// --- Messages API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
