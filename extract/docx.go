package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// extractDOCX pulls the raw text out of an Office Open XML word-processing
// document and returns it trimmed.
func (e *Extractor) extractDOCX(file File) (string, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer reader.Close()

	text := strings.TrimSpace(docxPlainText(reader.Editable().GetContent()))
	if text == "" {
		return "", errors.New("document contains no text")
	}

	return text, nil
}

// docxPlainText reduces word/document.xml markup to plain text: character
// data is kept, paragraph and line-break boundaries become newlines and tabs
// stay tabs. Unparseable markup degrades to whatever was collected so far.
func docxPlainText(content string) string {
	decoder := xml.NewDecoder(strings.NewReader(content))
	var out strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.CharData:
			out.Write(t)
		case xml.StartElement:
			switch t.Name.Local {
			case "br":
				out.WriteString("\n")
			case "tab":
				out.WriteString("\t")
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				out.WriteString("\n")
			}
		}
	}

	return out.String()
}
