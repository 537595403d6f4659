package rag

import (
	"mime"
	"strings"
	"unicode"
)

// extractText decodes uploaded bytes into plain text. text/plain decoding is
// exact. application/pdf takes a best-effort path that keeps only printable
// runs of the raw bytes: enough for keyword-bearing PDFs, not a faithful
// extraction.
func extractText(mimeType string, data []byte) (string, error) {
	mediaType := mimeType
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mediaType = parsed
	}

	switch mediaType {
	case "text/plain":
		return string(data), nil
	case "application/pdf":
		return stripNonPrintable(string(data)), nil
	default:
		return "", ErrUnsupportedMediaType
	}
}

// stripNonPrintable keeps printable runes and collapses everything else into
// single spaces.
func stripNonPrintable(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := true
	for _, r := range s {
		if r == unicode.ReplacementChar || (!unicode.IsPrint(r) && r != '\n') {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasSpace = unicode.IsSpace(r)
	}
	return strings.TrimSpace(b.String())
}
