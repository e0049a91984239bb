package local

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/kenglema/internal/sharestore"
)

func TestLocalShareStoreSaveAndGet(t *testing.T) {
	store, err := NewLocalShareStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	card := "🍷 坑了么分析报告\n\nsummary"

	key, err := store.Save(ctx, "share", strings.NewReader(card))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "share_"))
	assert.True(t, strings.HasSuffix(key, ".txt"))

	reader, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, card, string(data))
}

func TestLocalShareStoreUniqueKeys(t *testing.T) {
	store, err := NewLocalShareStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	a, err := store.Save(ctx, "share", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := store.Save(ctx, "share", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalShareStoreDelete(t *testing.T) {
	store, err := NewLocalShareStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key, err := store.Save(ctx, "share", strings.NewReader("test data"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, sharestore.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, key), sharestore.ErrNotFound)
}

func TestLocalShareStoreNotFound(t *testing.T) {
	store, err := NewLocalShareStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nonexistent.txt")
	assert.ErrorIs(t, err, sharestore.ErrNotFound)
}

func TestLocalShareStoreRejectsBadKeys(t *testing.T) {
	store, err := NewLocalShareStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../../etc/passwd", "../outside.txt", "sub/dir.txt", "card.jpg"} {
		t.Run(key, func(t *testing.T) {
			_, err := store.Get(context.Background(), key)
			assert.ErrorIs(t, err, sharestore.ErrInvalidKey)
		})
	}
}
