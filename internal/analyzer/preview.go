package analyzer

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"go-livestock-classifier/internal/logger"
	"go-livestock-classifier/internal/upload"
)

// ImagingPreviewRenderer downsizes uploads for display. Anything it cannot
// decode is passed through untouched so the browser can still try to show it.
type ImagingPreviewRenderer struct {
	maxWidth  int
	maxPixels int64
}

// NewPreviewRenderer creates a renderer from the preview bounds in opts.
// Non-positive bounds fall back to the defaults.
func NewPreviewRenderer(opts AnalysisOptions) PreviewRenderer {
	defaults := DefaultOptions()
	r := &ImagingPreviewRenderer{maxWidth: opts.PreviewMaxWidth, maxPixels: opts.PreviewMaxPixels}
	if r.maxWidth <= 0 {
		r.maxWidth = defaults.PreviewMaxWidth
	}
	if r.maxPixels <= 0 {
		r.maxPixels = defaults.PreviewMaxPixels
	}
	return r
}

// Render returns the preview bytes and their media type.
func (r *ImagingPreviewRenderer) Render(file upload.File) ([]byte, string) {
	log := logger.WithField("file", file.Name)

	// Bounds come from the header; no pixel buffer exists yet.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		log.WithError(err).Debug("Preview passthrough, image not decodable")
		return file.Data, file.MediaType
	}
	if cfg.Width <= r.maxWidth {
		return file.Data, file.MediaType
	}
	if int64(cfg.Width)*int64(cfg.Height) > r.maxPixels {
		log.WithField("pixels", int64(cfg.Width)*int64(cfg.Height)).Warn("Preview passthrough, image exceeds pixel budget")
		return file.Data, file.MediaType
	}

	img, format, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		log.WithError(err).Debug("Preview passthrough, image not decodable")
		return file.Data, file.MediaType
	}

	img = imaging.Resize(img, r.maxWidth, 0, imaging.Lanczos)

	out, mediaType, err := encode(img, format)
	if err != nil {
		log.WithError(err).Warn("Preview encode failed, using original bytes")
		return file.Data, file.MediaType
	}
	return out, mediaType
}

// encode writes PNG and GIF sources as PNG and everything else as JPEG.
// There is no WebP encoder in x/image.
func encode(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case "png", "gif":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	default:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}
