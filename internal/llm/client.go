package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chat-relay/internal/utils"
)

// Message mirrors the OpenAI-compatible chat message payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// APIError carries the provider's status and message for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm: upstream status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls an OpenAI-compatible chat completion endpoint. It is
// constructed once at startup and shared read-only across requests; no
// retries, no streaming, no deadline beyond the transport's own.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  httpDoer
}

type Option func(*Client)

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(doer httpDoer) Option {
	return func(c *Client) {
		c.client = doer
	}
}

func NewClient(cfg utils.OpenAIConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("llm: base url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("llm: model is required")
	}

	c := &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		model:   model,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

type completionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Choices []completionChoice `json:"choices"`
	Error   *apiErrorBody      `json:"error,omitempty"`
}

// Complete sends the transcript and returns the first generated reply's
// text. Any transport failure, non-2xx status or malformed body surfaces
// as an error; nothing is retried.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("llm: transcript is empty")
	}

	body, err := json.Marshal(completionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: call completion api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newAPIError(resp.StatusCode, respBody)
	}

	var payload completionResponse
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}

	if payload.Error != nil && payload.Error.Message != "" {
		return "", &APIError{StatusCode: resp.StatusCode, Message: payload.Error.Message}
	}

	if len(payload.Choices) == 0 {
		return "", errors.New("llm: response contained no choices")
	}

	return payload.Choices[0].Message.Content, nil
}

func newAPIError(status int, body []byte) *APIError {
	var wrapped struct {
		Error *apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
		return &APIError{StatusCode: status, Message: wrapped.Error.Message}
	}

	message := strings.TrimSpace(string(body))
	if len(message) > 512 {
		message = message[:512]
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: message}
}
