// Package speech abstracts a platform speech-recognition capability so that
// its absence is an ordinary, testable state rather than a runtime probe.
package speech

// Result is one recognition event. Interim results replace each other as the
// engine refines its guess; a final result is permanent.
type Result struct {
	Transcript string
	Final      bool
}

// Handler receives recognition lifecycle events. Implementations must be
// prepared for OnEnd or OnError at any point after Start.
type Handler interface {
	OnResult(Result)
	OnEnd()
	OnError(err error)
}

// Recognizer is a speech-to-text capability.
type Recognizer interface {
	// Supported reports whether the platform offers recognition at all.
	Supported() bool

	// Start begins a recognition run delivering events to the handler.
	Start(handler Handler) error

	// Stop ends the current run. The handler's OnEnd still fires.
	Stop()
}

// Unsupported is the Recognizer for platforms without speech recognition.
type Unsupported struct{}

func (Unsupported) Supported() bool     { return false }
func (Unsupported) Start(Handler) error { return nil }
func (Unsupported) Stop()               {}
