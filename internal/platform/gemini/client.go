// Package gemini is a small REST client for the hosted generative model.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("gemini: api key not configured")

// APIError is a non-2xx answer from the model endpoint.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: status %d %s: %s", e.StatusCode, e.Status, e.Message)
}

type Config struct {
	APIKey       string
	BaseURL      string
	SummaryModel string
	ChatModel    string
	Timeout      time.Duration
}

// Turn is one message of chat history. Role is "user" or "model".
type Turn struct {
	Role string
	Text string
}

type Client struct {
	http *resty.Client
	cfg  Config
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)
	return &Client{http: c, cfg: cfg}
}

func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Complete asks the summary model for a JSON document. schemaHint, when
// non-empty, is appended to the prompt and switches the response MIME type
// to application/json.
func (c *Client) Complete(ctx context.Context, prompt, schemaHint string) (string, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: joinPrompt(prompt, schemaHint)}}}},
	}
	if schemaHint != "" {
		req.GenerationConfig = &generationConfig{ResponseMimeType: "application/json"}
	}
	return c.generate(ctx, c.cfg.SummaryModel, req)
}

// Reply continues a conversation with the chat model under a system
// instruction.
func (c *Client) Reply(ctx context.Context, system string, history []Turn, message string) (string, error) {
	contents := make([]content, 0, len(history)+1)
	for _, t := range history {
		role := "user"
		if t.Role == "model" || t.Role == "assistant" {
			role = "model"
		}
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: t.Text}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: message}}})

	req := generateRequest{
		Contents:         contents,
		GenerationConfig: &generationConfig{Temperature: 0.7},
	}
	if system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	return c.generate(ctx, c.cfg.ChatModel, req)
}

func (c *Client) generate(ctx context.Context, model string, body generateRequest) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.cfg.APIKey).
		SetBody(&body).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", model))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		var apiErr errorResponse
		_ = json.Unmarshal(resp.Body(), &apiErr)
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return "", &APIError{StatusCode: resp.StatusCode(), Status: apiErr.Error.Status, Message: msg}
	}

	var out generateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("gemini: empty response text")
	}
	return text, nil
}

func joinPrompt(prompt, schemaHint string) string {
	if schemaHint == "" {
		return prompt
	}
	return prompt + "\n\nRespond with a single JSON object matching this schema:\n" + schemaHint
}
