// Package textgen provides a client for an OpenAI-compatible chat-completions
// API used to generate outreach email drafts.
// This is part of the platform layer and contains no business logic.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"outreach_backend/platform/apperr"

	"golang.org/x/time/rate"
)

// Config for the text-generation API.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Draft is a parsed generation result: a subject line and a plain-text body.
type Draft struct {
	Subject string
	Body    string
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a text-generation client. Every request carries its own
// timeout; callers treat any returned error as a per-item generation failure.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		config:  cfg,
		client:  &http.Client{},
		limiter: limiter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
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

// GenerateEmail sends the prompts to the completion endpoint and parses the
// returned text into a Draft. All faults (transport, quota, malformed or
// unparseable responses) surface as apperr.KindUpstream.
func (c *Client) GenerateEmail(ctx context.Context, systemPrompt, userPrompt string) (Draft, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Draft{}, apperr.Wrap(apperr.KindUpstream, "generation rate wait cancelled", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	payload := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return Draft{}, apperr.Wrap(apperr.KindUpstream, "encode generation request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return Draft{}, apperr.Wrap(apperr.KindUpstream, "build generation request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Draft{}, apperr.Wrap(apperr.KindUpstream, "generation request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Draft{}, apperr.Wrap(apperr.KindUpstream, "read generation response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Draft{}, apperr.Upstream(fmt.Sprintf("generation API returned status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Draft{}, apperr.Wrap(apperr.KindUpstream, "malformed generation response", err)
	}
	if parsed.Error != nil {
		return Draft{}, apperr.Upstream("generation API error: " + parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return Draft{}, apperr.Upstream("generation response contained no choices")
	}

	draft, err := parseDraft(parsed.Choices[0].Message.Content)
	if err != nil {
		return Draft{}, err
	}
	return draft, nil
}

// parseDraft splits raw model output into subject and body. The contract
// requires a recognizable "Subject:" line; anything else is a generation
// failure, not a crash.
func parseDraft(content string) (Draft, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) == 0 {
		return Draft{}, apperr.Upstream("empty generation response")
	}

	subjectLine := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(strings.ToLower(subjectLine), "subject:") {
		return Draft{}, apperr.Upstream("generation response missing subject line")
	}

	subject := strings.TrimSpace(subjectLine[len("subject:"):])
	if subject == "" {
		return Draft{}, apperr.Upstream("generation response has empty subject")
	}

	body := strings.TrimSpace(strings.Join(lines[1:], "\n"))
	if body == "" {
		return Draft{}, apperr.Upstream("generation response has empty body")
	}

	return Draft{Subject: subject, Body: body}, nil
}
