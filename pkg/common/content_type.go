package common

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	contentTypeHTML = "text/html"
	contentTypeText = "text/plain"
)

// staticContentTypes maps file extensions to the content type served for them.
var staticContentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
}

// ContentTypeForFile returns the content type served for the file at path.
// Known extensions use a fixed table; anything else is sniffed from the file
// contents, falling back to text/plain.
func ContentTypeForFile(path string) string {
	if ct, ok := staticContentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil || mt == nil {
		return contentTypeText
	}
	return mt.String()
}
