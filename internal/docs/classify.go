// Package docs handles message attachments: kind classification, PDF text
// extraction, and bounded summarization through the completion backend.
package docs

import (
	"path/filepath"
	"strings"
)

// Kind is the inferred attachment kind.
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindImage       Kind = "image"
	KindUnsupported Kind = "unsupported"
)

// Classify maps a filename to its attachment kind by case-insensitive suffix
// match. Every filename maps to exactly one kind.
func Classify(filename string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".jpg", ".jpeg", ".png":
		return KindImage
	default:
		return KindUnsupported
	}
}
