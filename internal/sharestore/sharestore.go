package sharestore

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound   = errors.New("share not found")
	ErrInvalidKey = errors.New("invalid share key")
)

// Store persists rendered share cards under opaque keys.
type Store interface {
	Save(ctx context.Context, prefix string, r io.Reader) (key string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
