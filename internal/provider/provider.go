// Package provider builds the vision.Completer selected by configuration.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vbonduro/kenglema/internal/config"
	"github.com/vbonduro/kenglema/internal/vision"
	"github.com/vbonduro/kenglema/internal/vision/claude"
	"github.com/vbonduro/kenglema/internal/vision/gemini"
	"github.com/vbonduro/kenglema/internal/vision/ollama"
	"github.com/vbonduro/kenglema/internal/vision/openai"
)

// New returns the completer for cfg.Provider. It does not check credentials;
// callers decide what an unconfigured provider means.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (vision.Completer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		logger.Info("using OpenAI-compatible vision backend", "base_url", cfg.BaseURL, "model", cfg.Model)
		return openai.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model, logger), nil
	case config.ProviderGemini:
		logger.Info("using Gemini vision backend", "model", cfg.Model)
		if cfg.APIKey == "" {
			// genai refuses to build a client without a key.
			return unconfigured{}, nil
		}
		return gemini.NewClient(ctx, cfg.BaseURL, cfg.APIKey, cfg.Model, logger)
	case config.ProviderClaude:
		logger.Info("using Claude vision backend", "model", cfg.Model)
		return claude.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model, logger), nil
	case config.ProviderOllama:
		logger.Info("using Ollama vision backend", "host", cfg.OllamaHost, "model", cfg.Model)
		return ollama.NewClient(cfg.OllamaHost, cfg.Model, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

var errUnconfigured = errors.New("vision provider is not configured")

// unconfigured stands in for a provider that cannot be built without credentials.
type unconfigured struct{}

func (unconfigured) Complete(context.Context, vision.Request) (*vision.Completion, error) {
	return nil, errUnconfigured
}
