package chat

import (
	"fmt"
	"strings"

	"agent-chat-client/extract"
)

// Composer owns the draft text and attachment set for the next message. It
// hands the assembled message to its send callback and then clears itself;
// attachment content crosses that boundary by value.
type Composer struct {
	extractor *extract.Extractor
	send      func(message string)
	disabled  func() bool

	draft        string
	attachments  []extract.Attachment
	attachErrors []extract.AttachmentError
	busy         bool
}

// NewComposer creates a composer. send receives each assembled message;
// disabled gates submission externally (typically the session's in-flight
// state) and may be nil.
func NewComposer(extractor *extract.Extractor, send func(message string), disabled func() bool) *Composer {
	return &Composer{
		extractor: extractor,
		send:      send,
		disabled:  disabled,
	}
}

// Draft returns the current draft text.
func (c *Composer) Draft() string {
	return c.draft
}

// SetDraft replaces the draft text.
func (c *Composer) SetDraft(value string) {
	c.draft = value
}

// Attachments returns a snapshot of the current attachment set.
func (c *Composer) Attachments() []extract.Attachment {
	return append([]extract.Attachment(nil), c.attachments...)
}

// AttachmentErrors returns the failures from the most recent batch.
func (c *Composer) AttachmentErrors() []extract.AttachmentError {
	return append([]extract.AttachmentError(nil), c.attachErrors...)
}

// Busy reports whether an extraction batch is outstanding.
func (c *Composer) Busy() bool {
	return c.busy
}

// AddFiles extracts the selected files and merges the results into the
// attachment set. Each file succeeds or fails on its own; failures replace
// the previous batch's error list.
func (c *Composer) AddFiles(files ...extract.File) {
	if c.isDisabled() || len(files) == 0 {
		return
	}

	c.busy = true
	defer func() {
		c.busy = false
	}()

	c.attachments, c.attachErrors = c.extractor.Ingest(c.attachments, files)
}

// RemoveAttachment drops the named attachment and any error recorded for it.
func (c *Composer) RemoveAttachment(name string) {
	for i, attachment := range c.attachments {
		if attachment.Name == name {
			c.attachments = append(c.attachments[:i], c.attachments[i+1:]...)
			break
		}
	}

	remaining := c.attachErrors[:0]
	for _, attachErr := range c.attachErrors {
		if attachErr.Name != name {
			remaining = append(remaining, attachErr)
		}
	}
	c.attachErrors = remaining
}

// ClearAttachments drops every attachment and error.
func (c *Composer) ClearAttachments() {
	c.attachments = nil
	c.attachErrors = nil
}

// CanSend reports whether Submit would emit a message.
func (c *Composer) CanSend() bool {
	if c.isDisabled() || c.busy {
		return false
	}
	return strings.TrimSpace(c.draft) != "" || len(c.attachments) > 0
}

// Submit assembles the outgoing message from the trimmed draft followed by a
// labeled block per non-empty attachment, emits it, and clears the composer.
// It is a no-op when CanSend is false.
func (c *Composer) Submit() {
	if !c.CanSend() {
		return
	}

	var parts []string
	if body := strings.TrimSpace(c.draft); body != "" {
		parts = append(parts, body)
	}

	for _, attachment := range c.attachments {
		if strings.TrimSpace(attachment.Content) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Attachment (%s):\n%s", attachment.Name, attachment.Content))
	}

	message := strings.Join(parts, "\n\n")
	if message == "" {
		return
	}

	c.send(message)
	c.Reset()
}

// PrefillAndSubmit replaces the draft with the given text and submits it
// immediately. Empty text and a disabled composer are no-ops.
func (c *Composer) PrefillAndSubmit(text string) {
	value := strings.TrimSpace(text)
	if value == "" || c.isDisabled() {
		return
	}

	c.draft = value
	c.Submit()
}

// Reset clears the draft and every attachment.
func (c *Composer) Reset() {
	c.draft = ""
	c.ClearAttachments()
}

func (c *Composer) isDisabled() bool {
	return c.disabled != nil && c.disabled()
}
