package db

import (
	"strings"

	"agent-chat-client/chat"
)

const titleMaxRunes = 60

// TurnRecorder archives completed chat turns. Conversations are created on
// first use of a thread, titled after the opening user message. Archived
// assistant replies are remembered by session message id so later feedback
// changes can be written through.
type TurnRecorder struct {
	db       *DB
	archived map[string]int64 // session message id -> archived row id
}

// NewTurnRecorder creates a recorder backed by db
func NewTurnRecorder(db *DB) *TurnRecorder {
	return &TurnRecorder{
		db:       db,
		archived: make(map[string]int64),
	}
}

// RecordTurn archives a user message and the assistant reply it produced.
// Turns without a thread id are not archived; the backend issued no thread
// to attach them to.
func (r *TurnRecorder) RecordTurn(threadID string, user, assistant chat.Message) error {
	if threadID == "" {
		return nil
	}

	conv, err := r.db.GetConversationByThread(threadID)
	if err != nil {
		return err
	}
	if conv == nil {
		conv, err = r.db.CreateConversation(threadID, titleFromContent(user.Content))
		if err != nil {
			return err
		}
	}

	if _, err := r.db.CreateMessage(conv.ID, string(user.Role), user.Content, "", ""); err != nil {
		return err
	}
	archivedReply, err := r.db.CreateMessage(conv.ID, string(assistant.Role), assistant.Content,
		string(assistant.Feedback), assistant.FeedbackComment)
	if err != nil {
		return err
	}
	r.archived[assistant.ID] = archivedReply.ID

	return nil
}

// RecordFeedback writes a feedback change through to the archived copy of an
// assistant reply. Replies whose turn was never archived are skipped.
func (r *TurnRecorder) RecordFeedback(threadID string, message chat.Message) error {
	rowID, ok := r.archived[message.ID]
	if !ok {
		return nil
	}
	return r.db.UpdateMessageFeedback(rowID, string(message.Feedback), message.FeedbackComment)
}

// titleFromContent derives a conversation title from the opening message:
// its first line, capped at titleMaxRunes.
func titleFromContent(content string) string {
	line := strings.TrimSpace(content)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	runes := []rune(line)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	if line == "" {
		return "New conversation"
	}
	return line
}
