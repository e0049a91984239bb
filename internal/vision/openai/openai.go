// Package openai talks to any OpenAI-compatible chat completions endpoint,
// including hosted proxies that front Gemini models.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/vbonduro/kenglema/internal/vision"
)

const providerName = "openai"

// request types mirror the chat completions API structure.
type request struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// response covers both the success shape and the error object; proxies are
// known to return the latter with a 200 status.
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type Client struct {
	http   *resty.Client
	model  string
	logger *slog.Logger
}

func NewClient(baseURL, apiKey, model string, logger *slog.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetAuthToken(apiKey).
			SetHeader("Content-Type", "application/json"),
		model:  model,
		logger: logger,
	}
}

// buildMessages constructs a single user message: instructions first, then
// every image as an inline data URL.
func buildMessages(prompt string, images [][]byte) []message {
	parts := make([]contentPart, 0, len(images)+1)
	parts = append(parts, contentPart{Type: "text", Text: prompt})
	for _, img := range images {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: vision.DataURL(img)},
		})
	}
	return []message{{Role: "user", Content: parts}}
}

func (c *Client) Complete(ctx context.Context, req vision.Request) (*vision.Completion, error) {
	body := request{
		Model:     c.model,
		Messages:  buildMessages(req.Prompt, req.Images),
		MaxTokens: req.MaxTokens,
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to call openai: %w", err)
	}

	var out response
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		if res.IsError() {
			return nil, fmt.Errorf("openai returned status %d: %s", res.StatusCode(), res.Body())
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if out.Error != nil {
		msg := out.Error.Message
		if msg == "" {
			raw, _ := json.Marshal(out.Error)
			msg = string(raw)
		}
		return nil, &vision.APIError{Provider: providerName, Message: msg}
	}
	if res.IsError() {
		return nil, fmt.Errorf("openai returned status %d: %s", res.StatusCode(), res.Body())
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	completion := &vision.Completion{Text: strings.TrimSpace(out.Choices[0].Message.Content)}
	if out.Usage != nil {
		completion.Usage = vision.Usage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
			TotalTokens:  out.Usage.TotalTokens,
		}
	}

	c.logger.Info("vision llm call",
		"provider", providerName,
		"model", c.model,
		"image_count", len(req.Images),
		"input_tokens", completion.Usage.InputTokens,
		"output_tokens", completion.Usage.OutputTokens,
	)
	c.logger.Debug("raw model output", "head", vision.Preview(completion.Text, 100))

	return completion, nil
}

// ListModels returns the model ids the endpoint advertises.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get("/models")
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("openai returned status %d: %s", res.StatusCode(), res.Body())
	}
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to decode models: %w", err)
	}

	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
