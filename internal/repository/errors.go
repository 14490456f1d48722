package repository

import "errors"

var (
	// ErrPreviewNotFound indicates the preview was never stored or has been revoked
	ErrPreviewNotFound = errors.New("preview not found")

	// ErrEmptyPreview indicates an attempt to store a preview without data
	ErrEmptyPreview = errors.New("preview has no data")
)
