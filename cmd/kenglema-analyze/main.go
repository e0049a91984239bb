// Command kenglema-analyze runs one analysis from image files on disk and
// prints the normalized result as JSON.
//
// Usage:
//
//	kenglema-analyze [-share] [-models] file...
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vbonduro/kenglema/internal/config"
	"github.com/vbonduro/kenglema/internal/domain"
	"github.com/vbonduro/kenglema/internal/imaging"
	"github.com/vbonduro/kenglema/internal/logging"
	"github.com/vbonduro/kenglema/internal/provider"
	"github.com/vbonduro/kenglema/internal/service"
	"github.com/vbonduro/kenglema/internal/share"
	"github.com/vbonduro/kenglema/internal/vision/openai"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("kenglema-analyze", flag.ContinueOnError)
	withShare := fs.Bool("share", false, "also print the share text and card")
	listModels := fs.Bool("models", false, "list models on the OpenAI-compatible endpoint and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	config.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	if *listModels {
		if cfg.Provider != config.ProviderOpenAI {
			return fmt.Errorf("-models requires LLM_PROVIDER=openai, got %q", cfg.Provider)
		}
		models, err := openai.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model, logger).ListModels(ctx)
		if err != nil {
			return err
		}
		for _, m := range models {
			fmt.Fprintln(stdout, m)
		}
		return nil
	}

	images := make([][]byte, 0, fs.NArg())
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		images = append(images, data)
	}

	completer, err := provider.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	analysis := service.NewAnalysisService(completer, service.AnalysisOptions{
		Configured: cfg.CredentialConfigured(),
		MaxImages:  cfg.MaxImages,
		MaxTokens:  cfg.MaxTokens,
		JSONMode:   cfg.JSONMode,
		Image:      imaging.Options{MaxWidth: cfg.ImageMaxWidth, Quality: cfg.ImageJPEGQuality},
	}, logger)

	result := analysis.Analyze(ctx, images)
	return printResult(stdout, result, *withShare)
}

func printResult(w io.Writer, result *domain.AnalysisResult, withShare bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !withShare {
		return nil
	}

	card, err := share.Card(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\n%s\n\n%s", share.Text(result), card)
	return err
}
