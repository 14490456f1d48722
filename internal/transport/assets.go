package transport

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
)

// assetFileSystem serves an fs.FS through gin-contrib/static.
type assetFileSystem struct {
	http.FileSystem
	fsys fs.FS
}

func newAssetFileSystem(fsys fs.FS) static.ServeFileSystem {
	return assetFileSystem{FileSystem: http.FS(fsys), fsys: fsys}
}

// Exists reports whether path, below prefix, names a regular file.
func (a assetFileSystem) Exists(prefix, path string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	name := strings.TrimPrefix(strings.TrimPrefix(path, prefix), "/")
	if name == "" {
		return false
	}
	info, err := fs.Stat(a.fsys, name)
	return err == nil && !info.IsDir()
}
