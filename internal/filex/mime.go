// Package filex contains filename-based helpers shared by the download and
// listing pathways: MIME type inference and display type labels.
package filex

import (
	"path/filepath"
	"strings"
)

// DefaultContentType is used when nothing better can be inferred.
const DefaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// ContentTypeByName infers a MIME type from the file extension.
// Unknown extensions map to DefaultContentType.
func ContentTypeByName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return DefaultContentType
}

// TypeLabel returns a coarse display category for a MIME type,
// used by the listing pathway to pick an icon.
func TypeLabel(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case contentType == "application/pdf":
		return "pdf"
	case strings.Contains(contentType, "msword"),
		strings.Contains(contentType, "wordprocessingml"):
		return "document"
	case strings.HasPrefix(contentType, "text/"):
		return "text"
	default:
		return "file"
	}
}
