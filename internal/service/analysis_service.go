package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/kenglema/internal/domain"
	"github.com/vbonduro/kenglema/internal/imaging"
	"github.com/vbonduro/kenglema/internal/vision"
)

// AnalysisOptions are the per-deployment knobs of AnalysisService.
type AnalysisOptions struct {
	// Configured is false when the selected provider has no credential.
	Configured bool
	MaxImages  int
	MaxTokens  int
	JSONMode   bool
	Image      imaging.Options
}

type AnalysisService struct {
	completer vision.Completer
	opts      AnalysisOptions
	logger    *slog.Logger
}

func NewAnalysisService(completer vision.Completer, opts AnalysisOptions, logger *slog.Logger) *AnalysisService {
	return &AnalysisService{
		completer: completer,
		opts:      opts,
		logger:    logger,
	}
}

// Analyze turns photos of a wine list or bottles into a normalized result.
// It never fails: every error is folded into the placeholder result so the
// caller always has something to render.
func (s *AnalysisService) Analyze(ctx context.Context, images [][]byte) *domain.AnalysisResult {
	if !s.opts.Configured {
		s.logger.Warn("analysis skipped: no credential configured")
		return domain.Placeholder(domain.SummaryNotConfigured)
	}

	if s.opts.MaxImages > 0 && len(images) > s.opts.MaxImages {
		s.logger.Info("truncating images", "received", len(images), "max", s.opts.MaxImages)
		images = images[:s.opts.MaxImages]
	}

	start := time.Now()
	result, err := s.analyze(ctx, images)
	if err != nil {
		s.logger.Error("analysis failed", "image_count", len(images), "error", err)
		return domain.FailurePlaceholder(err)
	}

	s.logger.Info("analysis complete",
		"image_count", len(images),
		"type", result.Kind,
		"item_count", len(result.Items),
		"duration", time.Since(start),
	)
	return result
}

func (s *AnalysisService) analyze(ctx context.Context, images [][]byte) (*domain.AnalysisResult, error) {
	prepared, err := imaging.PrepareAll(ctx, images, s.opts.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare images: %w", err)
	}

	completion, err := s.completer.Complete(ctx, vision.Request{
		Prompt:    vision.AnalysisPrompt,
		Images:    prepared,
		MaxTokens: s.opts.MaxTokens,
		JSONMode:  s.opts.JSONMode,
	})
	if err != nil {
		return nil, err
	}

	result, err := vision.ParseResponse(completion.Text)
	if err != nil {
		return nil, err
	}
	if err := vision.Normalize(result); err != nil {
		return nil, err
	}
	return result, nil
}
