package repository

import (
	"context"
	"time"
)

// PreviewRepository holds the viewable handles created for uploaded images.
// Previews live only in process memory, like a browser object URL.
type PreviewRepository interface {
	// Put stores data for owner and returns the new preview ID
	Put(ctx context.Context, owner string, data []byte, mediaType string) (string, error)

	// Get returns a stored preview
	Get(ctx context.Context, id string) (*Preview, error)

	// Revoke drops a single preview
	Revoke(ctx context.Context, id string) error

	// RevokeOwner drops every preview that belongs to owner and reports how many were removed
	RevokeOwner(ctx context.Context, owner string) int

	// Len reports the number of live previews
	Len() int
}

// Preview is an image held for display.
type Preview struct {
	ID        string
	Owner     string
	MediaType string
	Data      []byte
	CreatedAt time.Time
}
