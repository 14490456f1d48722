// Package upload implements the image upload control: it picks at most one
// image out of what the browser sent and hands it to a caller-supplied callback.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const imageMediaTypePrefix = "image/"

// File is an uploaded file held in memory for the lifetime of a page controller.
type File struct {
	ID        string
	Name      string
	Size      int64
	MediaType string
	Data      []byte
}

// Zone is the server-side half of the upload control. It owns no file state;
// every accepted file is passed straight to OnFileSelect.
type Zone struct {
	OnFileSelect func(File)
}

// NewZone returns a zone reporting selections to onFileSelect.
func NewZone(onFileSelect func(File)) *Zone {
	return &Zone{OnFileSelect: onFileSelect}
}

// Drop handles a drag-and-drop: the first file whose browser-reported media type
// is an image is selected. Drops without any image are ignored silently.
func (z *Zone) Drop(files []*multipart.FileHeader) (bool, error) {
	return z.selectFirstImage(files)
}

// Pick handles the file picker. The picker's accept filter is only a hint to the
// browser, so the same media type rule applies.
func (z *Zone) Pick(files []*multipart.FileHeader) (bool, error) {
	return z.selectFirstImage(files)
}

func (z *Zone) selectFirstImage(files []*multipart.FileHeader) (bool, error) {
	header, ok := FirstImage(files)
	if !ok {
		return false, nil
	}

	file, err := Read(header)
	if err != nil {
		return false, err
	}
	if z.OnFileSelect != nil {
		z.OnFileSelect(file)
	}
	return true, nil
}

// FirstImage returns the first header whose media type indicates an image.
func FirstImage(files []*multipart.FileHeader) (*multipart.FileHeader, bool) {
	return lo.Find(files, func(h *multipart.FileHeader) bool {
		return h != nil && IsImageMediaType(MediaType(h))
	})
}

// MediaType is the type the browser reported for the part, verbatim.
func MediaType(h *multipart.FileHeader) string {
	return h.Header.Get("Content-Type")
}

// IsImageMediaType applies the same prefix test as a browser File.type check.
func IsImageMediaType(mediaType string) bool {
	return strings.HasPrefix(mediaType, imageMediaTypePrefix)
}

// Read loads the multipart file into memory.
func Read(h *multipart.FileHeader) (File, error) {
	f, err := h.Open()
	if err != nil {
		return File{}, fmt.Errorf("open upload %q: %w", h.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return File{}, fmt.Errorf("read upload %q: %w", h.Filename, err)
	}

	return File{
		ID:        uuid.NewString(),
		Name:      h.Filename,
		Size:      int64(len(data)),
		MediaType: MediaType(h),
		Data:      data,
	}, nil
}
