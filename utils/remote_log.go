package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LogEntry is the payload shipped to the auxiliary logging endpoint.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
}

// RemoteSink ships structured log entries to a small logging service.
// Shipping is fire-and-forget: delivery failures are noted on the local
// logger and otherwise swallowed. A nil sink is safe to call.
type RemoteSink struct {
	endpoint string
	client   *http.Client
	logger   *Logger
}

// NewRemoteSink creates a sink for the given endpoint. logger receives
// delivery diagnostics and may be nil.
func NewRemoteSink(endpoint string, logger *Logger) *RemoteSink {
	return &RemoteSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
	}
}

// LogInfo ships an info entry.
func (s *RemoteSink) LogInfo(message string, context map[string]any) {
	s.ship("info", message, context)
}

// LogError ships an error entry, folding the error into the context.
func (s *RemoteSink) LogError(message string, err error, context map[string]any) {
	if err != nil {
		if context == nil {
			context = map[string]any{}
		}
		context["error"] = err.Error()
	}
	s.ship("error", message, context)
}

func (s *RemoteSink) ship(level, message string, context map[string]any) {
	if s == nil || s.endpoint == "" {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Context:   context,
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		s.logger.Error("Failed to encode log entry: %v", err)
		return
	}

	resp, err := s.client.Post(s.endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		s.logger.Error("Failed to persist log entry: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Error("Failed to persist log entry: %v", fmt.Errorf("status %d", resp.StatusCode))
	}
}
