package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vbonduro/kenglema/internal/domain"
	"github.com/vbonduro/kenglema/internal/share"
	"github.com/vbonduro/kenglema/internal/sharestore"
)

type ShareService struct {
	store  sharestore.Store
	logger *slog.Logger
}

func NewShareService(store sharestore.Store, logger *slog.Logger) *ShareService {
	return &ShareService{store: store, logger: logger}
}

// Share renders result and stores its card. It returns share.ErrInFlight
// without doing any work when gate is already held.
func (s *ShareService) Share(ctx context.Context, gate *share.Gate, result *domain.AnalysisResult) (*share.Export, error) {
	if !gate.TryAcquire() {
		s.logger.Debug("share dropped: another share in flight")
		return nil, share.ErrInFlight
	}
	defer gate.Release()

	card, err := share.Card(result)
	if err != nil {
		return nil, err
	}

	key, err := s.store.Save(ctx, "share", strings.NewReader(card))
	if err != nil {
		return nil, fmt.Errorf("failed to save share card: %w", err)
	}

	s.logger.Info("share created", "key", key, "item_count", len(result.Items))
	return &share.Export{Text: share.Text(result), Key: key}, nil
}

// Card returns a previously saved share card.
func (s *ShareService) Card(ctx context.Context, key string) (string, error) {
	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := rc.Close(); err != nil {
			s.logger.Error("failed to close share card", "key", key, "error", err)
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read share card: %w", err)
	}
	return string(data), nil
}
