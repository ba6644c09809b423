package extract

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// extractText reads the file's bytes as text using its declared encoding.
// The content comes back untrimmed so callers can tell a whitespace-only
// file apart from an unreadable one.
func (e *Extractor) extractText(file File) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(file.Data), file.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to resolve encoding: %w", err)
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode file: %w", err)
	}

	if !utf8.Valid(decoded) {
		return "", fmt.Errorf("file is not readable text")
	}

	return string(decoded), nil
}
