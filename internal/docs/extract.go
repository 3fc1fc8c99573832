package docs

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractionError reports an unreadable or empty source document.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "document extraction: " + e.Reason
}

// ExtractPDF pulls the plain text out of a PDF, page by page, skipping pages
// with no extractable text. A malformed document or one yielding no text at
// all (e.g. a scanned PDF) is an *ExtractionError.
func ExtractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Reason: fmt.Sprintf("open pdf: %v", err)}
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page should not void the rest of the document.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}

	full := strings.TrimSpace(b.String())
	if full == "" {
		return "", &ExtractionError{Reason: "no extractable text"}
	}
	return full, nil
}
