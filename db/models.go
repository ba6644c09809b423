package db

import "time"

// Conversation represents an archived conversation keyed by the thread id
// issued by the agent backend.
type Conversation struct {
	ID        int64     `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message represents a single archived message
type Message struct {
	ID              int64     `json:"id"`
	ConversationID  int64     `json:"conversation_id"`
	Role            string    `json:"role"` // "user" or "assistant"
	Content         string    `json:"content"`
	Feedback        string    `json:"feedback"` // "", "up" or "down"
	FeedbackComment string    `json:"feedback_comment"`
	CreatedAt       time.Time `json:"created_at"`
}
