package db

import (
	"fmt"
	"time"
)

// CreateMessage creates a new message in a conversation
func (db *DB) CreateMessage(conversationID int64, role, content, feedback, feedbackComment string) (*Message, error) {
	now := time.Now()
	result, err := db.conn.Exec(
		"INSERT INTO messages (conversation_id, role, content, feedback, feedback_comment, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		conversationID, role, content, feedback, feedbackComment, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get message ID: %w", err)
	}

	// Keep the conversation's recency current
	if err := db.TouchConversation(conversationID); err != nil {
		return nil, err
	}

	return &Message{
		ID:              id,
		ConversationID:  conversationID,
		Role:            role,
		Content:         content,
		Feedback:        feedback,
		FeedbackComment: feedbackComment,
		CreatedAt:       now,
	}, nil
}

// ListMessages retrieves all messages in a conversation
func (db *DB) ListMessages(conversationID int64) ([]*Message, error) {
	rows, err := db.conn.Query(
		"SELECT id, conversation_id, role, content, feedback, feedback_comment, created_at FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, id ASC",
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.Feedback, &msg.FeedbackComment, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, nil
}

// UpdateMessageFeedback updates a message's feedback rating and comment
func (db *DB) UpdateMessageFeedback(id int64, feedback, comment string) error {
	_, err := db.conn.Exec(
		"UPDATE messages SET feedback = ?, feedback_comment = ? WHERE id = ?",
		feedback, comment, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update message feedback: %w", err)
	}
	return nil
}
