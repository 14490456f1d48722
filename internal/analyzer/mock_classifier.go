package analyzer

import (
	"context"

	"go-livestock-classifier/internal/upload"
	"go-livestock-classifier/pkg/models"
)

// MockPrediction is the fixed outcome reported for every image.
var MockPrediction = models.PredictionResult{
	AnimalType:      models.AnimalTypeCattle,
	Breed:           "Gir",
	TypeConfidence:  0.92,
	BreedConfidence: 0.87,
}

// MockClassifier stands in for the two-stage type/breed pipeline. It never
// looks at the image and never fails; the artificial delay is owned by the
// page controller's scheduler.
type MockClassifier struct{}

// NewMockClassifier creates the stand-in classifier.
func NewMockClassifier() Classifier {
	return MockClassifier{}
}

// Classify returns a copy of MockPrediction.
func (MockClassifier) Classify(_ context.Context, _ upload.File) (models.PredictionResult, error) {
	return MockPrediction, nil
}
