package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/vbonduro/kenglema/internal/vision"
)

const providerName = "ollama"

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Images  []string `json:"images"`
	Stream  bool     `json:"stream"`
	Format  string   `json:"format,omitempty"`
	Options *options `json:"options,omitempty"`
}

type options struct {
	NumPredict int `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int64  `json:"prompt_eval_count"`
	EvalCount       int64  `json:"eval_count"`
	Error           string `json:"error"`
}

type Client struct {
	http   *resty.Client
	model  string
	logger *slog.Logger
}

func NewClient(host, model string, logger *slog.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(host, "/")).
			SetHeader("Content-Type", "application/json"),
		model:  model,
		logger: logger,
	}
}

func (c *Client) Complete(ctx context.Context, req vision.Request) (*vision.Completion, error) {
	encoded := make([]string, len(req.Images))
	for i, img := range req.Images {
		encoded[i] = base64.StdEncoding.EncodeToString(img)
	}

	body := generateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		Images: encoded,
		Stream: false,
	}
	if req.MaxTokens > 0 {
		body.Options = &options{NumPredict: req.MaxTokens}
	}
	if req.JSONMode {
		body.Format = "json"
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/api/generate")
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		if res.IsError() {
			return nil, fmt.Errorf("ollama returned status %d", res.StatusCode())
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != "" {
		return nil, &vision.APIError{Provider: providerName, Message: out.Error}
	}
	if res.IsError() {
		return nil, fmt.Errorf("ollama returned status %d", res.StatusCode())
	}

	completion := &vision.Completion{
		Text: strings.TrimSpace(out.Response),
		Usage: vision.Usage{
			InputTokens:  out.PromptEvalCount,
			OutputTokens: out.EvalCount,
			TotalTokens:  out.PromptEvalCount + out.EvalCount,
		},
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
