// Package ai talks to the external generation service. Everything here is
// best-effort: callers on the human message path must never block on or
// surface a failure from this client.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// defaultTimeout is the upper bound on a generation call; exceeding it is a
// failure, not a retry.
const defaultTimeout = 30 * time.Second

// ErrUpstream wraps any generation-service failure (quota, timeout,
// malformed response). It is logged and swallowed upstream.
var ErrUpstream = errors.New("ai: generation service unavailable")

// Turn is one entry of the prompt context window.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant" or "system"
	Content string `json:"content"`
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClientFromEnv constructs a client from AI_API_URL, AI_API_KEY and
// AI_MODEL. A missing URL disables the assistant path entirely.
func NewClientFromEnv() (*Client, error) {
	baseURL := os.Getenv("AI_API_URL")
	if baseURL == "" {
		return nil, errors.New("ai: AI_API_URL environment variable is not set")
	}
	model := os.Getenv("AI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		apiKey:     os.Getenv("AI_API_KEY"),
		model:      model,
	}, nil
}

// NewClient constructs a client against an explicit endpoint; used by tests.
func NewClient(httpClient *http.Client, baseURL, apiKey, model string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey, model: model}
}

type completionRequest struct {
	Model    string `json:"model"`
	Messages []Turn `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete requests one completion for the prompt with the given context
// window. All failure modes collapse into ErrUpstream.
func (c *Client) Complete(ctx context.Context, history []Turn, prompt string) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", ErrUpstream
	}

	messages := make([]Turn, 0, len(history)+2)
	messages = append(messages, Turn{
		Role:    "system",
		Content: "You are a concise career assistant inside a professional networking app.",
	})
	messages = append(messages, history...)
	messages = append(messages, Turn{Role: "user", Content: prompt})

	body, err := json.Marshal(completionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little for the log line; body content is untrusted.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, snippet)
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUpstream)
	}
	return out.Choices[0].Message.Content, nil
}
