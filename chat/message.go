package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Feedback is a user annotation on an assistant reply.
type Feedback string

const (
	FeedbackNone Feedback = ""
	FeedbackUp   Feedback = "up"
	FeedbackDown Feedback = "down"
)

// Message is one turn in a conversation. A pending message is an assistant
// placeholder whose content arrives when the in-flight request settles.
type Message struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
	Pending   bool

	// Error stays false even when the reply is a fallback; failed turns are
	// presented as ordinary assistant replies.
	Error bool

	Feedback          Feedback
	FeedbackComment   string
	FeedbackDraft     string
	FeedbackSubmitted bool
}

func newMessage(role Role, content string, pending bool) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
		Pending:   pending,
	}
}

// clearFeedback resets every feedback field together; a message never keeps a
// comment without an active feedback choice.
func (m *Message) clearFeedback() {
	m.Feedback = FeedbackNone
	m.FeedbackComment = ""
	m.FeedbackDraft = ""
	m.FeedbackSubmitted = false
}
