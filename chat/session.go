package chat

import (
	"context"
	"strings"

	"agent-chat-client/llm"
	"agent-chat-client/utils"
)

// pendingPlaceholder fills an assistant reply that came back empty.
const pendingPlaceholder = "..."

// Recorder receives settled conversation turns for persistence. The messages
// are handed over by value once both sides of the turn are final.
type Recorder interface {
	RecordTurn(threadID string, user, assistant Message) error
}

// FeedbackRecorder is an optional Recorder extension notified when feedback
// on a settled assistant reply changes, so the persisted copy stays current.
type FeedbackRecorder interface {
	RecordFeedback(threadID string, message Message) error
}

// Options configures a Session's fallback behaviour.
type Options struct {
	// FallbackAssistantMessage replaces the assistant reply when the
	// outbound request fails.
	FallbackAssistantMessage string

	// FallbackThreadID is adopted when a request fails before any thread
	// exists, so fallback conversations stay addressable.
	FallbackThreadID string
}

// Session owns the ordered message history of one conversation, its thread
// identity and the send/receive lifecycle. It is single-owner state: callers
// drive it from one goroutine, matching the cooperative model of the rest of
// the client.
type Session struct {
	provider    llm.Provider
	resolveUser func() string
	opts        Options

	messages  []Message
	threadID  string
	isSending bool

	composer       *Composer
	recorder       Recorder
	logger         *utils.Logger
	threadWatchers []func(threadID string)
}

// NewSession creates an empty conversation session. resolveUser supplies the
// authenticated user's identifier at send time; it returns "" when nobody is
// signed in.
func NewSession(provider llm.Provider, resolveUser func() string, opts Options) *Session {
	return &Session{
		provider:    provider,
		resolveUser: resolveUser,
		opts:        opts,
	}
}

// BindComposer attaches the composer whose draft and attachments are cleared
// when the conversation resets.
func (s *Session) BindComposer(c *Composer) {
	s.composer = c
}

// SetRecorder attaches a persistence hook for settled turns.
func (s *Session) SetRecorder(r Recorder) {
	s.recorder = r
}

// SetLogger attaches a logger for persistence diagnostics.
func (s *Session) SetLogger(l *utils.Logger) {
	s.logger = l
}

// OnThreadChange registers a watcher notified whenever the thread identifier
// changes, including the reset to "".
func (s *Session) OnThreadChange(fn func(threadID string)) {
	s.threadWatchers = append(s.threadWatchers, fn)
}

// Messages returns a snapshot of the conversation history.
func (s *Session) Messages() []Message {
	return append([]Message(nil), s.messages...)
}

// ThreadID returns the current thread identifier, or "" before the backend
// assigns one.
func (s *Session) ThreadID() string {
	return s.threadID
}

// IsSending reports whether a request is in flight.
func (s *Session) IsSending() bool {
	return s.isSending
}

// Send issues one conversation turn. Empty content and overlapping sends are
// rejected silently; that gate is the session's only concurrency control.
// The user message and a pending assistant placeholder are appended before
// the request goes out, and the placeholder is reconciled in place when the
// request settles.
func (s *Session) Send(ctx context.Context, content string) {
	content = strings.TrimSpace(content)
	if content == "" || s.isSending {
		return
	}

	userMessage := newMessage(RoleUser, content, false)
	s.messages = append(s.messages, userMessage)

	assistantDraft := newMessage(RoleAssistant, "", true)
	s.messages = append(s.messages, assistantDraft)

	s.isSending = true
	defer func() {
		s.isSending = false
	}()

	userID := strings.TrimSpace(s.resolveUser())
	if userID == "" {
		s.settleFailure(userMessage.ID, assistantDraft.ID)
		return
	}

	response, err := s.provider.Send(ctx, llm.Request{
		Query:    content,
		UserID:   userID,
		ThreadID: s.threadID,
	})
	if err != nil {
		s.settleFailure(userMessage.ID, assistantDraft.ID)
		return
	}

	if threadID := response.NewThreadID(); threadID != "" {
		s.updateThreadID(threadID)
	}

	reply := response.ReplyText()
	if reply == "" {
		reply = pendingPlaceholder
	}

	s.mutate(assistantDraft.ID, func(m *Message) {
		m.Content = reply
		m.Pending = false
	})
	s.recordTurn(userMessage.ID, assistantDraft.ID)
}

// settleFailure fills the assistant placeholder with the configured fallback
// reply. The error flag stays false: failures read as an ordinary answer.
func (s *Session) settleFailure(userID, assistantID string) {
	s.mutate(assistantID, func(m *Message) {
		m.Content = s.opts.FallbackAssistantMessage
		m.Pending = false
		m.Error = false
	})

	if s.threadID == "" {
		s.updateThreadID(s.opts.FallbackThreadID)
	}
	s.recordTurn(userID, assistantID)
}

// ToggleFeedback flips the given feedback on a settled message. Pressing the
// active choice clears it along with any comment state; pressing down opens a
// comment draft seeded from the stored comment.
func (s *Session) ToggleFeedback(messageID string, feedback Feedback) {
	changed := false
	s.mutate(messageID, func(m *Message) {
		if m.Pending {
			return
		}
		changed = true

		if m.Feedback == feedback {
			m.clearFeedback()
			return
		}

		if feedback == FeedbackDown {
			m.Feedback = FeedbackDown
			if m.FeedbackComment != "" {
				m.FeedbackDraft = m.FeedbackComment
			}
			return
		}

		m.Feedback = FeedbackUp
		m.FeedbackComment = ""
		m.FeedbackDraft = ""
		m.FeedbackSubmitted = false
	})
	if changed {
		s.recordFeedback(messageID)
	}
}

// SetFeedbackDraft edits the in-progress down-feedback comment.
func (s *Session) SetFeedbackDraft(messageID, value string) {
	s.mutate(messageID, func(m *Message) {
		if m.Pending || m.Feedback != FeedbackDown {
			return
		}
		m.FeedbackDraft = value
	})
}

// SubmitFeedback commits the comment draft. An empty trimmed draft clears the
// stored comment but the feedback still counts as submitted.
func (s *Session) SubmitFeedback(messageID string) {
	changed := false
	s.mutate(messageID, func(m *Message) {
		if m.Pending || m.Feedback != FeedbackDown {
			return
		}
		m.FeedbackComment = strings.TrimSpace(m.FeedbackDraft)
		m.FeedbackSubmitted = true
		changed = true
	})
	if changed {
		s.recordFeedback(messageID)
	}
}

// EditFeedback reopens a submitted down-feedback comment for editing.
func (s *Session) EditFeedback(messageID string) {
	s.mutate(messageID, func(m *Message) {
		if m.Pending || m.Feedback != FeedbackDown {
			return
		}
		m.FeedbackSubmitted = false
		if m.FeedbackComment != "" {
			m.FeedbackDraft = m.FeedbackComment
		}
	})
}

// CancelFeedback discards the feedback and any comment state entirely.
func (s *Session) CancelFeedback(messageID string) {
	changed := false
	s.mutate(messageID, func(m *Message) {
		if m.Pending {
			return
		}
		m.clearFeedback()
		changed = true
	})
	if changed {
		s.recordFeedback(messageID)
	}
}

// ResetConversation returns the session to its initial empty state and clears
// the bound composer.
func (s *Session) ResetConversation() {
	s.isSending = false
	s.messages = nil
	s.updateThreadID("")
	if s.composer != nil {
		s.composer.Reset()
	}
}

func (s *Session) updateThreadID(next string) {
	if s.threadID == next {
		return
	}

	s.threadID = next
	for _, watcher := range s.threadWatchers {
		watcher(next)
	}
}

func (s *Session) mutate(messageID string, fn func(*Message)) {
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			fn(&s.messages[i])
			return
		}
	}
}

func (s *Session) recordTurn(userID, assistantID string) {
	if s.recorder == nil {
		return
	}

	var user, assistant *Message
	for i := range s.messages {
		switch s.messages[i].ID {
		case userID:
			user = &s.messages[i]
		case assistantID:
			assistant = &s.messages[i]
		}
	}
	if user == nil || assistant == nil {
		return
	}

	// Recorder failures must not disturb the conversation state.
	if err := s.recorder.RecordTurn(s.threadID, *user, *assistant); err != nil {
		s.logger.Error("Failed to archive turn: %v", err)
	}
}

func (s *Session) recordFeedback(messageID string) {
	recorder, ok := s.recorder.(FeedbackRecorder)
	if !ok {
		return
	}

	for i := range s.messages {
		if s.messages[i].ID == messageID {
			if err := recorder.RecordFeedback(s.threadID, s.messages[i]); err != nil {
				s.logger.Error("Failed to archive feedback: %v", err)
			}
			return
		}
	}
}
