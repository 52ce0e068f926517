// Package openai talks to an OpenAI-compatible chat completions endpoint.
// It provides the query extractor and the model-backed sentiment scorer.
package openai

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

	"github.com/corey/zeal/internal/apperrors"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// Config configures a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Retry       RetryConfig
}

// Client handles communication with the chat completions API.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	retry       RetryConfig
	httpClient  *http.Client
	log         *zap.Logger
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the chat completions request body.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// Response is the subset of the chat completions response we read.
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice is one completion choice.
type Choice struct {
	Message      *Message `json:"message"`
	FinishReason string   `json:"finish_reason"`
}

// NewClient creates a client. Empty fields take the package defaults.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.InitialBackoff <= 0 {
		cfg.Retry.InitialBackoff = defaultInitialBackoff
	}
	if cfg.Retry.MaxBackoff <= 0 {
		cfg.Retry.MaxBackoff = defaultMaxBackoff
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		retry:       cfg.Retry,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		log:         log.Named("openai"),
	}
}

// Complete sends one system+user exchange and returns the first choice's
// content. Failures are EXTRACTION_SERVICE_FAILURE errors of kind network
// (no 200 response) or malformed_response (200 without usable content).
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	body, err := json.Marshal(Request{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", apperrors.NewExtractionError(apperrors.KindNetwork, fmt.Errorf("marshal request: %w", err))
	}

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", apperrors.NewExtractionError(apperrors.KindNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewExtractionError(apperrors.KindNetwork, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewExtractionError(apperrors.KindNetwork,
			fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(data), 200)))
	}

	var parsed Response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", apperrors.NewExtractionError(apperrors.KindMalformedResponse, fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
		return "", apperrors.NewExtractionError(apperrors.KindMalformedResponse, errors.New("response has no message"))
	}

	content := parsed.Choices[0].Message.Content
	c.log.Debug("completion", zap.String("id", parsed.ID), zap.String("content", content))
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
