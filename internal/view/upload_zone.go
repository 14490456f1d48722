package view

import "go-livestock-classifier/pkg/models"

// UploadZone is the render model of the drop target. The dragging variant is
// toggled client-side, so both class lists are rendered.
type UploadZone struct {
	HasFile     bool
	FileName    string
	Size        string
	ButtonLabel string

	Class         string
	DraggingClass string
	IconClass     string
	DragIconClass string
}

// NewUploadZone builds the zone for the current selection, which may be nil.
func NewUploadZone(file *models.SelectedFile) UploadZone {
	z := UploadZone{
		HasFile:       file != nil,
		ButtonLabel:   "Select Image",
		Class:         UploadZoneClass(false, file != nil),
		DraggingClass: UploadZoneClass(true, file != nil),
		IconClass:     cn("upload-icon", "bg-muted"),
		DragIconClass: cn("upload-icon", "bg-primary-soft", "shadow-glow"),
	}
	if file != nil {
		z.FileName = file.Name
		z.Size = Megabytes(file.Size)
		z.ButtonLabel = "Choose Different Image"
	}
	return z
}

// UploadZoneClass composes the zone's card classes. A selected file overrides
// the border of the dragging and idle variants.
func UploadZoneClass(dragging, hasFile bool) string {
	return cn(
		"card upload-zone",
		"border-dashed",
		pick(dragging, "border-primary bg-accent shadow-glow", "border-muted hover-border-primary"),
		when(hasFile, "border-success bg-success-soft"),
	)
}

// AnalyzeButton is shown only while a file is selected.
type AnalyzeButton struct {
	Visible  bool
	Disabled bool
	Label    string
	Spinning bool
}

func NewAnalyzeButton(state models.PageState) AnalyzeButton {
	b := AnalyzeButton{
		Visible:  state.SelectedFile != nil,
		Disabled: state.IsLoading,
		Label:    "Analyze Image",
	}
	if state.IsLoading {
		b.Label = "Analyzing..."
		b.Spinning = true
	}
	return b
}

// UploadColumn groups the controls left of the result panel.
type UploadColumn struct {
	Zone    UploadZone
	Analyze AnalyzeButton
}

func NewUploadColumn(state models.PageState) UploadColumn {
	return UploadColumn{
		Zone:    NewUploadZone(state.SelectedFile),
		Analyze: NewAnalyzeButton(state),
	}
}
