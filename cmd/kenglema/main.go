package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/vbonduro/kenglema/internal/config"
	"github.com/vbonduro/kenglema/internal/imaging"
	"github.com/vbonduro/kenglema/internal/logging"
	"github.com/vbonduro/kenglema/internal/provider"
	"github.com/vbonduro/kenglema/internal/service"
	"github.com/vbonduro/kenglema/internal/sharestore"
	"github.com/vbonduro/kenglema/internal/sharestore/local"
	s3store "github.com/vbonduro/kenglema/internal/sharestore/s3"
	"github.com/vbonduro/kenglema/internal/web"
)

func main() {
	config.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	completer, err := provider.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize vision backend", "error", err)
		return
	}
	if !cfg.CredentialConfigured() {
		logger.Warn("LLM_API_KEY is not set; analysis will return the placeholder result", "provider", cfg.Provider)
	}

	shareStg, err := newShareStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize share store", "error", err)
		return
	}

	analysis := service.NewAnalysisService(completer, service.AnalysisOptions{
		Configured: cfg.CredentialConfigured(),
		MaxImages:  cfg.MaxImages,
		MaxTokens:  cfg.MaxTokens,
		JSONMode:   cfg.JSONMode,
		Image:      imaging.Options{MaxWidth: cfg.ImageMaxWidth, Quality: cfg.ImageJPEGQuality},
	}, logger)
	shares := service.NewShareService(shareStg, logger)

	server := web.NewServer(analysis, shares, web.Info{
		Provider:   string(cfg.Provider),
		Configured: cfg.CredentialConfigured(),
	}, logger)

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
	}
}

func newShareStore(ctx context.Context, cfg *config.Config) (sharestore.Store, error) {
	if cfg.ShareBackend == "s3" {
		return s3store.NewS3ShareStore(ctx, s3store.Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return local.NewLocalShareStore(cfg.SharePath)
}
