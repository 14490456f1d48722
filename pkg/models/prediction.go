package models

// AnimalType is the top-level class produced by the first classification stage.
type AnimalType string

const (
	AnimalTypeCattle  AnimalType = "cattle"
	AnimalTypeBuffalo AnimalType = "buffalo"
)

// Valid reports whether a is one of the known animal types.
func (a AnimalType) Valid() bool {
	switch a {
	case AnimalTypeCattle, AnimalTypeBuffalo:
		return true
	}
	return false
}

// PredictionResult is the outcome of one (mock) analysis run.
// It is replaced wholesale on every new selection and never persisted.
type PredictionResult struct {
	AnimalType      AnimalType `json:"animalType"`
	Breed           string     `json:"breed"`
	TypeConfidence  float64    `json:"typeConfidence"`
	BreedConfidence float64    `json:"breedConfidence"`

	// ImageURL points at the in-memory preview of the analysed upload.
	ImageURL string `json:"imageUrl,omitempty"`
}

// SelectedFile describes the file currently held by a page controller.
type SelectedFile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MediaType string `json:"mediaType"`
}

// PageState is a point-in-time snapshot of a page controller.
type PageState struct {
	SelectedFile *SelectedFile     `json:"selectedFile"`
	Result       *PredictionResult `json:"result"`
	IsLoading    bool              `json:"isLoading"`

	// Version increases on every state change so clients can drop stale pushes.
	Version uint64 `json:"version"`
}
