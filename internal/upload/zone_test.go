package upload

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	name      string
	mediaType string
	body      string
}

// buildHeaders round-trips parts through a real multipart body so the headers
// look exactly like the ones gin hands to the transport layer.
func buildHeaders(t *testing.T, parts ...part) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, p.name))
		if p.mediaType != "" {
			h.Set("Content-Type", p.mediaType)
		}
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"]
}

func TestZone_DropSelectsFirstImage(t *testing.T) {
	headers := buildHeaders(t,
		part{"notes.txt", "text/plain", "hello"},
		part{"cow.jpg", "image/jpeg", "jpeg-bytes"},
		part{"buffalo.png", "image/png", "png-bytes"},
	)

	var got []File
	zone := NewZone(func(f File) { got = append(got, f) })

	accepted, err := zone.Drop(headers)
	require.NoError(t, err)
	assert.True(t, accepted)
	require.Len(t, got, 1)
	assert.Equal(t, "cow.jpg", got[0].Name)
	assert.Equal(t, "image/jpeg", got[0].MediaType)
	assert.Equal(t, []byte("jpeg-bytes"), got[0].Data)
	assert.Equal(t, int64(len("jpeg-bytes")), got[0].Size)
	assert.NotEmpty(t, got[0].ID)
}

func TestZone_NonImageDropIsIgnored(t *testing.T) {
	headers := buildHeaders(t,
		part{"report.pdf", "application/pdf", "%PDF"},
		part{"notes.txt", "text/plain", "hello"},
		part{"unknown.bin", "", "??"},
	)

	called := false
	zone := NewZone(func(File) { called = true })

	accepted, err := zone.Drop(headers)
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.False(t, called, "callback must not run for non-image drops")
}

func TestZone_EmptyDrop(t *testing.T) {
	zone := NewZone(func(File) { t.Fatal("unexpected callback") })

	accepted, err := zone.Drop(nil)
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestZone_PickAppliesSameRule(t *testing.T) {
	headers := buildHeaders(t,
		part{"clip.mp4", "video/mp4", "video"},
		part{"gir.webp", "image/webp", "webp"},
	)

	var got File
	zone := NewZone(func(f File) { got = f })

	accepted, err := zone.Pick(headers)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, "gir.webp", got.Name)
}

func TestZone_NilCallback(t *testing.T) {
	headers := buildHeaders(t, part{"cow.jpg", "image/jpeg", "x"})

	accepted, err := (&Zone{}).Drop(headers)
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestIsImageMediaType(t *testing.T) {
	tests := map[string]bool{
		"image/jpeg":               true,
		"image/png":                true,
		"image/svg+xml":            true,
		"image/":                   true,
		"text/plain":               false,
		"application/octet-stream": false,
		"":                         false,
		"IMAGE/PNG":                false,
		" image/png":               false,
	}

	for mediaType, want := range tests {
		assert.Equal(t, want, IsImageMediaType(mediaType), "media type %q", mediaType)
	}
}
