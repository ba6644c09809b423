package extract

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// extractPDF concatenates the text of every page, one blank line between
// pages, with whitespace runs collapsed within each page.
func (e *Extractor) extractPDF(file File) (text string, err error) {
	// A malformed cross-reference table can make the parser panic; map that
	// to an ordinary extraction failure.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pageTexts []string
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		pageText = strings.TrimSpace(whitespaceRun.ReplaceAllString(pageText, " "))
		if pageText != "" {
			pageTexts = append(pageTexts, pageText)
		}
	}

	if len(pageTexts) == 0 {
		return "", errors.New("no page yielded text")
	}

	return strings.Join(pageTexts, "\n\n"), nil
}
