package chat

import (
	"strings"

	"agent-chat-client/speech"
)

// DictationCapture accumulates speech-recognition transcripts onto the
// composer's draft. Starting a capture snapshots the current draft as a base;
// interim results preview on top of it and final segments append permanently.
// A capture started by Toggle auto-submits once recognition ends, unless it
// was stopped explicitly or failed.
type DictationCapture struct {
	recognizer speech.Recognizer
	composer   *Composer

	listening     bool
	baseDraft     string
	finalText     string
	autoSend      bool
	pendingSubmit bool
}

// NewDictationCapture wires a recognizer to a composer. An unsupported
// recognizer yields a capture whose Toggle is a no-op.
func NewDictationCapture(recognizer speech.Recognizer, composer *Composer) *DictationCapture {
	if recognizer == nil {
		recognizer = speech.Unsupported{}
	}
	return &DictationCapture{
		recognizer: recognizer,
		composer:   composer,
	}
}

// Supported reports whether the platform offers speech recognition.
func (d *DictationCapture) Supported() bool {
	return d.recognizer.Supported()
}

// Listening reports whether a capture is in progress.
func (d *DictationCapture) Listening() bool {
	return d.listening
}

// Toggle starts a capture, or stops the running one. An explicit stop
// suppresses the scheduled auto-submit.
func (d *DictationCapture) Toggle() {
	if !d.recognizer.Supported() || d.composer.isDisabled() {
		return
	}

	if d.listening {
		d.autoSend = false
		d.pendingSubmit = false
		d.recognizer.Stop()
		return
	}

	d.baseDraft = strings.TrimSpace(d.composer.Draft())
	d.finalText = ""
	d.autoSend = true

	if err := d.recognizer.Start(d); err != nil {
		d.autoSend = false
		d.listening = false
		return
	}
	d.listening = true
}

// OnResult implements speech.Handler.
func (d *DictationCapture) OnResult(result speech.Result) {
	transcript := strings.TrimSpace(result.Transcript)
	if transcript == "" {
		return
	}

	if result.Final {
		d.finalText = strings.TrimSpace(d.finalText + " " + transcript)
		d.composer.SetDraft(joinSpeech(d.baseDraft, d.finalText))
		if d.autoSend {
			d.pendingSubmit = true
		}
		return
	}

	working := d.finalText
	if working == "" {
		working = transcript
	}
	d.composer.SetDraft(joinSpeech(d.baseDraft, working))
}

// OnEnd implements speech.Handler. Natural termination fires the auto-submit
// scheduled by a final transcript.
func (d *DictationCapture) OnEnd() {
	d.listening = false
	d.autoSend = false

	if d.pendingSubmit {
		d.pendingSubmit = false
		d.composer.Submit()
	}
}

// OnError implements speech.Handler. Errors return to idle and cancel any
// scheduled auto-submit.
func (d *DictationCapture) OnError(err error) {
	d.listening = false
	d.autoSend = false
	d.pendingSubmit = false
}

func joinSpeech(base, text string) string {
	if base == "" {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(base + " " + text)
}
