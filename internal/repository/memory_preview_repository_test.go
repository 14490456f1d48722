package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func TestMemoryPreviewRepository_PutGet(t *testing.T) {
	repo := NewMemoryPreviewRepository()
	ctx := context.Background()

	id, err := repo.Put(ctx, "session-a", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	p, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "session-a", p.Owner)
	assert.Equal(t, "image/jpeg", p.MediaType)
	assert.Equal(t, []byte("jpeg"), p.Data)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryPreviewRepository_EmptyData(t *testing.T) {
	repo := NewMemoryPreviewRepository()

	_, err := repo.Put(context.Background(), "s", nil, "image/png")
	require.ErrorIs(t, err, ErrEmptyPreview)
}

func TestMemoryPreviewRepository_CancelledContext(t *testing.T) {
	repo := NewMemoryPreviewRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Put(ctx, "s", []byte("x"), "image/png")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, repo.Len())
}

func TestMemoryPreviewRepository_Revoke(t *testing.T) {
	repo := NewMemoryPreviewRepository()
	ctx := context.Background()

	id, err := repo.Put(ctx, "s", []byte("x"), "image/png")
	require.NoError(t, err)

	require.NoError(t, repo.Revoke(ctx, id))
	_, err = repo.Get(ctx, id)
	assert.True(t, errors.Is(err, ErrPreviewNotFound))

	err = repo.Revoke(ctx, id)
	assert.ErrorIs(t, err, ErrPreviewNotFound)
}

func TestMemoryPreviewRepository_RevokeOwner(t *testing.T) {
	repo := NewMemoryPreviewRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Put(ctx, "a", []byte("x"), "image/png")
		require.NoError(t, err)
	}
	keep, err := repo.Put(ctx, "b", []byte("y"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, 3, repo.RevokeOwner(ctx, "a"))
	assert.Equal(t, 0, repo.RevokeOwner(ctx, "a"))
	assert.Equal(t, 1, repo.Len())

	_, err = repo.Get(ctx, keep)
	assert.NoError(t, err)
}

func TestDetectMediaType(t *testing.T) {
	assert.Equal(t, "image/webp", DetectMediaType([]byte("anything"), "image/webp"))
	assert.Equal(t, "image/png", DetectMediaType(pngSignature, ""))
	assert.Equal(t, "image/png", DetectMediaType(pngSignature, "application/octet-stream"))
}
