package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Request is the outbound payload for one conversation turn.
type Request struct {
	Query    string `json:"query"`
	UserID   string `json:"user_id"`
	ThreadID string `json:"thread_id,omitempty"`
}

// Response is the reply envelope returned by an agent endpoint. The backend
// may answer with a bare JSON string or with an object carrying the reply in
// any of several fields; UnmarshalJSON accepts both shapes.
type Response struct {
	Status   string `json:"status,omitempty"`
	Response string `json:"response,omitempty"`
	Reply    string `json:"reply,omitempty"`
	Message  string `json:"message,omitempty"`
	Content  string `json:"content,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
}

func (r *Response) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "\"") {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*r = Response{Response: text}
		return nil
	}

	type alias Response
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = Response(obj)
	return nil
}

// ReplyText returns the reply body, trimmed. The field precedence
// (response, reply, message, content) matches the deployed backend and must
// not be reordered.
func (r *Response) ReplyText() string {
	for _, candidate := range []string{r.Response, r.Reply, r.Message, r.Content} {
		if text := strings.TrimSpace(candidate); text != "" {
			return text
		}
	}
	return ""
}

// NewThreadID returns the thread identifier carried by the response, or ""
// when the backend did not supply one.
func (r *Response) NewThreadID() string {
	return strings.TrimSpace(r.ThreadID)
}

// Provider is the common interface for chat backends.
type Provider interface {
	// Send issues a single conversation turn and blocks until the reply
	// arrives or the request fails.
	Send(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name
	Name() string
}

// Config represents provider configuration
type Config struct {
	ProviderName string
	APIKey       string
	BaseURL      string
	Model        string
	// Timeout bounds a whole request, in seconds. Honored by providers
	// with predictable latency; the agent endpoint runs without one.
	Timeout     int
	MaxTokens   int
	Temperature float64
}
