// Package view turns page state into render models and holds the embedded
// templates and assets of the classification page.
package view

import "go-livestock-classifier/pkg/models"

type Link struct {
	Label string
	Icon  string
	Href  string
}

type FeatureCard struct {
	Icon        string
	Title       string
	Description string
}

type StackCard struct {
	Title string
	Items []string
}

// Page is the render model of the full document.
type Page struct {
	Title       string
	HeroBadge   string
	Headline    string
	Tagline     string
	HeroActions []Link

	PipelineTitle string
	Features      []FeatureCard

	DemoTitle string
	DemoIntro string
	Upload    UploadColumn
	Results   ResultPanel

	ArchitectureTitle string
	Stacks            []StackCard
	FooterLinks       []Link
	Credit            string

	Version uint64
}

// NewPage renders the static copy around the given state.
func NewPage(state models.PageState) Page {
	return Page{
		Title:     "AI Livestock Classification",
		HeroBadge: "Smart India Hackathon 2025",
		Headline:  "AI Livestock Classification",
		Tagline: "Advanced dual-stage AI system for precise cattle and buffalo breed recognition. " +
			"Combining computer vision with agricultural expertise for smart farming solutions.",
		HeroActions: []Link{
			{Label: "Try Classification", Icon: "brain", Href: "#demo"},
			{Label: "View Source", Icon: "github", Href: "#architecture"},
		},

		PipelineTitle: "Dual-Stage AI Pipeline",
		Features: []FeatureCard{
			{
				Icon:        "target",
				Title:       "Stage 1: Type Classification",
				Description: "Initial classification to distinguish between cattle and buffalo using advanced CNN models.",
			},
			{
				Icon:        "brain",
				Title:       "Stage 2: Breed Recognition",
				Description: "Specialized breed classification using type-specific models trained on diverse livestock datasets.",
			},
			{
				Icon:        "zap",
				Title:       "Real-time Analysis",
				Description: "Fast inference with confidence scoring and detailed breed information for agricultural applications.",
			},
		},

		DemoTitle: "Test the AI Classification",
		DemoIntro: "Upload an image of cattle or buffalo to see our dual-stage AI pipeline in action. " +
			"Get instant breed classification with confidence scores.",
		Upload:  NewUploadColumn(state),
		Results: NewResultPanel(state.Result, state.IsLoading),

		ArchitectureTitle: "Technical Architecture",
		Stacks: []StackCard{
			{
				Title: "Frontend Stack",
				Items: []string{
					"Server-rendered Go templates",
					"Responsive CSS layout",
					"Drag-and-drop image upload",
					"Real-time confidence visualization",
					"Live updates over WebSocket",
				},
			},
			{
				Title: "AI/ML Pipeline",
				Items: []string{
					"Go service with gin",
					"Pluggable classifier backend",
					"Two-stage classification system",
					"Image preprocessing & augmentation",
					"Confidence-based predictions",
				},
			},
		},
		FooterLinks: []Link{
			{Label: "Documentation", Icon: "file-text", Href: "#"},
			{Label: "SIH Presentation", Icon: "presentation", Href: "#"},
			{Label: "GitHub Repository", Icon: "github", Href: "#"},
		},
		Credit: "Developed for Smart India Hackathon 2025 • Problems SIH25004 & SIH25005",

		Version: state.Version,
	}
}
