// Package gemini calls Google's Gemini API directly through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vbonduro/kenglema/internal/vision"
	"google.golang.org/genai"
)

const providerName = "gemini"

type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a Gemini client. An empty baseURL uses the SDK default.
func NewClient(ctx context.Context, baseURL, apiKey, model string, logger *slog.Logger) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, model: model, logger: logger}, nil
}

// buildParts puts the prompt first, followed by every image as inline data.
func buildParts(prompt string, images [][]byte) []*genai.Part {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, img := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img, MIMEType: vision.ImageMIMEType},
		})
	}
	return parts
}

func (c *Client) Complete(ctx context.Context, req vision.Request) (*vision.Completion, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts(buildParts(req.Prompt, req.Images), genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		if msg, ok := apiErrorMessage(err); ok {
			return nil, &vision.APIError{Provider: providerName, Message: msg}
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	completion := &vision.Completion{Text: result.Text()}
	if result.UsageMetadata != nil {
		completion.Usage = vision.Usage{
			InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
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

// apiErrorMessage extracts the message of an error object returned by the
// Gemini API. genai reports these as values or pointers depending on the path.
func apiErrorMessage(err error) (string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Message, true
	}
	return "", false
}
