package view

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go-livestock-classifier/pkg/models"
)

// Confidence above these thresholds is shown as a success.
const (
	TypeConfidenceThreshold  = 0.8
	BreedConfidenceThreshold = 0.7
)

// PanelState is the visual state of the result panel.
type PanelState string

const (
	PanelLoading   PanelState = "loading"
	PanelEmpty     PanelState = "empty"
	PanelPopulated PanelState = "populated"
)

type BadgeVariant string

const (
	BadgeDefault   BadgeVariant = "default"
	BadgeSecondary BadgeVariant = "secondary"
	BadgeOutline   BadgeVariant = "outline"
)

type MeterVariant string

const (
	MeterSuccess MeterVariant = "success"
	MeterWarning MeterVariant = "warning"
)

// Meter is one labelled confidence bar.
type Meter struct {
	Label   string
	Percent string
	Width   string
	Variant MeterVariant
	Class   string
}

// ResultPanel is the render model of the classification result card.
type ResultPanel struct {
	State PanelState

	AnimalType     string
	Breed          string
	BreedBadge     BadgeVariant
	TypeBadge      BadgeVariant
	TypeBadgeClass string
	TypeConfidence string
	Meters         []Meter
	ImageURL       string
}

var displayCase = cases.Title(language.English)

// NewResultPanel derives the panel from the page state. Loading wins over a
// stale result; without a result the empty state is shown.
func NewResultPanel(result *models.PredictionResult, isLoading bool) ResultPanel {
	switch {
	case isLoading:
		return ResultPanel{State: PanelLoading}
	case result == nil:
		return ResultPanel{State: PanelEmpty}
	}

	typeOK := result.TypeConfidence > TypeConfidenceThreshold
	typeBadge := BadgeSecondary
	if typeOK {
		typeBadge = BadgeDefault
	}

	return ResultPanel{
		State:          PanelPopulated,
		AnimalType:     displayCase.String(string(result.AnimalType)),
		Breed:          result.Breed,
		BreedBadge:     BadgeOutline,
		TypeBadge:      typeBadge,
		TypeBadgeClass: cn("badge", "badge-"+string(typeBadge), "bg-gradient-primary"),
		TypeConfidence: Percent(result.TypeConfidence),
		Meters: []Meter{
			newMeter("Type Classification", result.TypeConfidence, TypeConfidenceThreshold),
			newMeter("Breed Recognition", result.BreedConfidence, BreedConfidenceThreshold),
		},
		ImageURL: result.ImageURL,
	}
}

func newMeter(label string, confidence, threshold float64) Meter {
	variant := MeterWarning
	if confidence > threshold {
		variant = MeterSuccess
	}
	return Meter{
		Label:   label,
		Percent: Percent(confidence),
		Width:   BarWidth(confidence),
		Variant: variant,
		Class:   cn("meter-fill", pick(variant == MeterSuccess, "bg-success", "bg-warning")),
	}
}
