package analyzer

import "time"

// AnalysisOptions controls how the page controller schedules mock analyses.
type AnalysisOptions struct {
	// Delay before a scheduled analysis completes.
	Delay time.Duration

	// SupersedePending stops an in-flight analysis when a new one is scheduled
	// and drops completions that arrive late. When false every scheduled
	// completion writes its result (last writer wins).
	SupersedePending bool

	// AutoAnalyze starts an analysis as soon as a file is selected. When false
	// a selection only stores the file and Analyze must be called explicitly.
	AutoAnalyze bool

	// PreviewMaxWidth bounds the width of rendered previews in pixels.
	PreviewMaxWidth int

	// PreviewMaxPixels caps width×height of images the renderer will decode.
	// Larger images are served as uploaded.
	PreviewMaxPixels int64
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		Delay:            2000 * time.Millisecond,
		SupersedePending: true,
		AutoAnalyze:      true,
		PreviewMaxWidth:  1280,
		PreviewMaxPixels: 40_000_000,
	}
}

// WithDelay returns options with a different completion delay
func (opts AnalysisOptions) WithDelay(d time.Duration) AnalysisOptions {
	opts.Delay = d
	return opts
}

// WithLastWriterWins lets overlapping analyses race; each completion overwrites the result.
func (opts AnalysisOptions) WithLastWriterWins() AnalysisOptions {
	opts.SupersedePending = false
	return opts
}

// WithManualAnalyze requires an explicit Analyze after each selection.
func (opts AnalysisOptions) WithManualAnalyze() AnalysisOptions {
	opts.AutoAnalyze = false
	return opts
}

// WithPreviewMaxWidth bounds preview width
func (opts AnalysisOptions) WithPreviewMaxWidth(width int) AnalysisOptions {
	opts.PreviewMaxWidth = width
	return opts
}

// WithPreviewMaxPixels bounds the decoded size of previews
func (opts AnalysisOptions) WithPreviewMaxPixels(pixels int64) AnalysisOptions {
	opts.PreviewMaxPixels = pixels
	return opts
}
