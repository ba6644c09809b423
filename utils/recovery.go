package utils

import (
	"fmt"
	"runtime/debug"
)

// RecoverFromPanic recovers a panic and logs it with a stack trace. Meant to
// be deferred at goroutine and loop boundaries.
func RecoverFromPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered in %s: %v\nStack trace:\n%s", where, r, debug.Stack())
	}
}

// WrapError annotates an error with where it happened. Returns nil for nil.
func WrapError(err error, where string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", where, err)
}
