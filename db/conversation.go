package db

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateConversation creates a new conversation for a backend thread
func (db *DB) CreateConversation(threadID, title string) (*Conversation, error) {
	now := time.Now()
	result, err := db.conn.Exec(
		"INSERT INTO conversations (thread_id, title, created_at, updated_at) VALUES (?, ?, ?, ?)",
		threadID, title, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation ID: %w", err)
	}

	return &Conversation{
		ID:        id,
		ThreadID:  threadID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetConversationByThread retrieves a conversation by its backend thread id.
// Returns (nil, nil) when no conversation exists for the thread.
func (db *DB) GetConversationByThread(threadID string) (*Conversation, error) {
	var conv Conversation
	err := db.conn.QueryRow(
		"SELECT id, thread_id, title, created_at, updated_at FROM conversations WHERE thread_id = ?",
		threadID,
	).Scan(&conv.ID, &conv.ThreadID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return &conv, nil
}

// ListConversations retrieves conversations ordered by update time
func (db *DB) ListConversations(limit, offset int) ([]*Conversation, error) {
	rows, err := db.conn.Query(
		"SELECT id, thread_id, title, created_at, updated_at FROM conversations ORDER BY updated_at DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.ThreadID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, &conv)
	}

	return conversations, nil
}

// DeleteConversation deletes a conversation and all its messages
func (db *DB) DeleteConversation(id int64) error {
	_, err := db.conn.Exec("DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// CountConversations returns the total number of conversations
func (db *DB) CountConversations() (int64, error) {
	var count int64
	err := db.conn.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}

// TouchConversation updates the conversation's updated_at timestamp
func (db *DB) TouchConversation(id int64) error {
	_, err := db.conn.Exec(
		"UPDATE conversations SET updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}
