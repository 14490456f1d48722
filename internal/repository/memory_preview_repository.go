package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MemoryPreviewRepository is an in-memory PreviewRepository.
type MemoryPreviewRepository struct {
	mu       sync.RWMutex
	previews map[string]*Preview
	now      func() time.Time
}

// NewMemoryPreviewRepository creates an empty repository
func NewMemoryPreviewRepository() *MemoryPreviewRepository {
	return &MemoryPreviewRepository{
		previews: make(map[string]*Preview),
		now:      time.Now,
	}
}

// Put stores a preview. When mediaType is empty or not an image type it is
// sniffed from the data.
func (r *MemoryPreviewRepository) Put(ctx context.Context, owner string, data []byte, mediaType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyPreview
	}

	p := &Preview{
		ID:        uuid.NewString(),
		Owner:     owner,
		MediaType: DetectMediaType(data, mediaType),
		Data:      data,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.previews[p.ID] = p
	r.mu.Unlock()

	return p.ID, nil
}

// Get returns the preview with the given ID
func (r *MemoryPreviewRepository) Get(ctx context.Context, id string) (*Preview, error) {
	r.mu.RLock()
	p, ok := r.previews[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("get preview %s: %w", id, ErrPreviewNotFound)
	}
	return p, nil
}

// Revoke removes one preview
func (r *MemoryPreviewRepository) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.previews[id]; !ok {
		return fmt.Errorf("revoke preview %s: %w", id, ErrPreviewNotFound)
	}
	delete(r.previews, id)
	return nil
}

// RevokeOwner removes all previews of one owner
func (r *MemoryPreviewRepository) RevokeOwner(ctx context.Context, owner string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, p := range r.previews {
		if p.Owner == owner {
			delete(r.previews, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored previews
func (r *MemoryPreviewRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.previews)
}

// DetectMediaType trusts an image/* hint and otherwise sniffs the content.
func DetectMediaType(data []byte, hint string) string {
	if strings.HasPrefix(hint, "image/") {
		return hint
	}
	return mimetype.Detect(data).String()
}

// Compile-time interface check
var _ PreviewRepository = (*MemoryPreviewRepository)(nil)
