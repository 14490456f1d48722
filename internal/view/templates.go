package view

import (
	"embed"
	"html/template"
	"io/fs"
)

// Template names understood by the renderer.
const (
	PageTemplate         = "page.tmpl"
	ResultPanelTemplate  = "result_panel"
	UploadColumnTemplate = "upload_column"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.tmpl")
}

// MustTemplates is Templates for program start-up.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}

// Assets is the stylesheet and script tree served under /assets.
func Assets() fs.FS {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}
