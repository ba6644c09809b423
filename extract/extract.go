// Package extract converts attachment files into plain text for inclusion in
// a chat message. Dispatch is by declared MIME type with a filename-extension
// fallback: PDF and DOCX get dedicated strategies, everything else is read as
// text in its declared encoding.
package extract

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// User-facing per-file failure messages.
	msgUnreadable = "Unable to extract readable text from the attachment."
	msgEmpty      = "The attachment did not contain readable text."
)

// File is one selected attachment before extraction.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Attachment is an extracted attachment. Names are unique within a set;
// re-adding a file with the same name replaces the prior entry.
type Attachment struct {
	Name    string
	Content string
}

// AttachmentError reports a per-file extraction failure. It never blocks the
// rest of the batch.
type AttachmentError struct {
	Name    string
	Message string
}

// Extractor turns files into extracted text
type Extractor struct {
	maxFileSize int64
}

// NewExtractor creates an extractor with default limits
func NewExtractor() *Extractor {
	return &Extractor{
		maxFileSize: 10 * 1024 * 1024, // 10MB
	}
}

// Extract returns the file's text content. PDF and DOCX files that parse but
// hold no text report an error; plain-text files may return whitespace-only
// content, which callers treat separately.
func (e *Extractor) Extract(file File) (string, error) {
	if int64(len(file.Data)) > e.maxFileSize {
		return "", fmt.Errorf("file too large: %d bytes (max %d bytes)", len(file.Data), e.maxFileSize)
	}

	name := strings.ToLower(file.Name)
	mediaType := mediaTypeOf(file.ContentType)

	switch {
	case mediaType == mimePDF || strings.HasSuffix(name, ".pdf"):
		return e.extractPDF(file)
	case mediaType == mimeDOCX || strings.HasSuffix(name, ".docx"):
		return e.extractDOCX(file)
	default:
		return e.extractText(file)
	}
}

// Ingest extracts every file in the batch independently and merges the
// successes into the existing attachment set by name. Failures come back as
// structured errors alongside the merged set.
func (e *Extractor) Ingest(existing []Attachment, files []File) ([]Attachment, []AttachmentError) {
	attachments := append([]Attachment(nil), existing...)
	var errs []AttachmentError

	for _, file := range files {
		content, err := e.Extract(file)
		if err != nil {
			errs = append(errs, AttachmentError{Name: file.Name, Message: msgUnreadable})
			continue
		}

		if strings.TrimSpace(content) == "" {
			errs = append(errs, AttachmentError{Name: file.Name, Message: msgEmpty})
			continue
		}

		next := Attachment{Name: file.Name, Content: content}
		replaced := false
		for i := range attachments {
			if attachments[i].Name == file.Name {
				attachments[i] = next
				replaced = true
				break
			}
		}
		if !replaced {
			attachments = append(attachments, next)
		}
	}

	return attachments, errs
}

// FromPath reads a file from disk and infers its MIME type from the extension
func FromPath(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read file: %w", err)
	}

	return File{
		Name:        filepath.Base(path),
		ContentType: mimeTypeForExtension(filepath.Ext(path)),
		Data:        data,
	}, nil
}

// mediaTypeOf strips any parameters (charset etc.) from a content type.
func mediaTypeOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// mimeTypeForExtension returns the MIME type based on file extension
func mimeTypeForExtension(ext string) string {
	ext = strings.ToLower(ext)
	mimeTypes := map[string]string{
		".pdf":  mimePDF,
		".docx": mimeDOCX,
		".txt":  "text/plain",
		".md":   "text/markdown",
		".json": "application/json",
		".yaml": "application/x-yaml",
		".yml":  "application/x-yaml",
		".xml":  "application/xml",
		".csv":  "text/csv",
		".log":  "text/plain",
		".html": "text/html",
		".htm":  "text/html",
	}

	if mimeType, ok := mimeTypes[ext]; ok {
		return mimeType
	}
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}
