package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/vbonduro/kenglema/internal/vision"
)

const providerName = "claude"

type Client struct {
	client *anthropic.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a Claude client. An empty baseURL uses the library default.
func NewClient(baseURL, apiKey, model string, logger *slog.Logger) *Client {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	return &Client{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
		logger: logger,
	}
}

// buildMessages places every image ahead of the instructions.
func buildMessages(prompt string, images [][]byte) []anthropic.Message {
	content := make([]anthropic.MessageContent, 0, len(images)+1)
	for _, img := range images {
		content = append(content, anthropic.NewImageMessageContent(
			anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				vision.ImageMIMEType,
				base64.StdEncoding.EncodeToString(img),
			),
		))
	}
	content = append(content, anthropic.NewTextMessageContent(prompt))
	return []anthropic.Message{{Role: anthropic.RoleUser, Content: content}}
}

func (c *Client) Complete(ctx context.Context, req vision.Request) (*vision.Completion, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: req.MaxTokens,
		Messages:  buildMessages(req.Prompt, req.Images),
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return nil, &vision.APIError{Provider: providerName, Message: apiErr.Message}
		}
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	var text string
	for _, blk := range resp.Content {
		if blk.Type == anthropic.MessagesContentTypeText && blk.Text != nil {
			text = *blk.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text in claude response")
	}

	completion := &vision.Completion{
		Text: strings.TrimSpace(text),
		Usage: vision.Usage{
			InputTokens:  int64(resp.Usage.InputTokens),
			OutputTokens: int64(resp.Usage.OutputTokens),
			TotalTokens:  int64(resp.Usage.InputTokens + resp.Usage.OutputTokens),
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
