// Package llm provides a client for the hosted chat-completion API used for
// intent parsing, response generation and transcription.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/liorazar/cashcoach/internal/config"
	"github.com/sirupsen/logrus"
)

const (
	requestTimeout = 30 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates the API key is missing or invalid.
	ErrUnauthorized = errors.New("llm: unauthorized")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("llm: rate limited")
)

// Completer is the capability the conversation layer depends on. Keeping it
// narrow lets tests swap in a canned implementation and keeps the provider
// replaceable.
type Completer interface {
	// Fast is the low-latency variant used for intent parsing.
	Fast(ctx context.Context, system, prompt string) (string, error)
	// Deep is the high-effort variant used for response generation.
	Deep(ctx context.Context, system, prompt string) (string, error)
}

// Client talks to an OpenAI-compatible chat-completion API with a
// primary/fallback model pair.
type Client struct {
	baseURL       string
	apiKey        string
	model         string
	fallbackModel string
	client        *http.Client
	log           *logrus.Logger
}

// NewClient initializes an LLM client from configuration
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL:       cfg.LLMBaseURL,
		apiKey:        cfg.LLMAPIKey,
		model:         cfg.LLMModel,
		fallbackModel: cfg.LLMFallbackModel,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		log: log,
	}
}

type chatRequest struct {
	Model           string        `json:"model"`
	Messages        []chatMessage `json:"messages"`
	ReasoningEffort string        `json:"reasoning_effort,omitempty"`
	Verbosity       string        `json:"verbosity,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Fast runs a completion tuned for latency: minimal reasoning, low verbosity.
func (c *Client) Fast(ctx context.Context, system, prompt string) (string, error) {
	return c.completeWithFallback(ctx, system, prompt, "minimal", "low")
}

// Deep runs a completion tuned for quality: high reasoning effort.
func (c *Client) Deep(ctx context.Context, system, prompt string) (string, error) {
	return c.completeWithFallback(ctx, system, prompt, "high", "medium")
}

// completeWithFallback tries the primary model and retries once on the
// fallback model. No backoff beyond that single hop.
func (c *Client) completeWithFallback(ctx context.Context, system, prompt, effort, verbosity string) (string, error) {
	text, err := c.complete(ctx, c.model, system, prompt, effort, verbosity)
	if err == nil {
		return text, nil
	}
	c.log.Errorf("LLM completion failed on %s, falling back to %s: %v", c.model, c.fallbackModel, err)
	return c.complete(ctx, c.fallbackModel, system, prompt, effort, verbosity)
}

func (c *Client) complete(ctx context.Context, model, system, prompt, effort, verbosity string) (string, error) {
	reqBody := chatRequest{
		Model:           model,
		ReasoningEffort: effort,
		Verbosity:       verbosity,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llm: encoding request: %w", err)
	}

	body, err := c.post(ctx, "/chat/completions", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("llm: parsing response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm: empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Transcribe sends an audio attachment to the transcription endpoint and
// returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("llm: building transcription request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("llm: building transcription request: %w", err)
	}
	if err := writer.WriteField("model", "whisper-1"); err != nil {
		return "", fmt.Errorf("llm: building transcription request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("llm: building transcription request: %w", err)
	}

	body, err := c.post(ctx, "/audio/transcriptions", writer.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("llm: parsing transcription: %w", err)
	}
	return parsed.Text, nil
}

// post performs an authenticated POST request and returns the response body.
func (c *Client) post(ctx context.Context, path, contentType string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("llm: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("llm: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("llm: reading response: %w", err)
	}
	return body, nil
}
