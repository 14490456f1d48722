package analyzer

import (
	"context"

	"go-livestock-classifier/internal/upload"
	"go-livestock-classifier/pkg/models"
)

// Classifier produces a prediction for one uploaded image.
type Classifier interface {
	Classify(ctx context.Context, file upload.File) (models.PredictionResult, error)
}

// PreviewRenderer turns an upload into bytes suitable for an <img> preview.
type PreviewRenderer interface {
	Render(file upload.File) (data []byte, mediaType string)
}
