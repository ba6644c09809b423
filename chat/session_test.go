package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-chat-client/llm"
	"agent-chat-client/utils"
)

type fakeProvider struct {
	response *llm.Response
	err      error
	requests []llm.Request
}

func (f *fakeProvider) Send(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func userResolver(id string) func() string {
	return func() string { return id }
}

var testOptions = Options{
	FallbackAssistantMessage: "The API call to the back end AI failed, returning the default message.",
	FallbackThreadID:         "fallback-thread",
}

func TestSendSuccess(t *testing.T) {
	provider := &fakeProvider{response: &llm.Response{Reply: "hi"}}
	session := NewSession(provider, userResolver("alice"), testOptions)

	session.Send(context.Background(), "hello")

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, RoleUser, messages[0].Role)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, RoleAssistant, messages[1].Role)
	assert.Equal(t, "hi", messages[1].Content)
	assert.False(t, messages[1].Pending)
	assert.False(t, messages[1].Error)
	assert.Empty(t, session.ThreadID())
	assert.False(t, session.IsSending())

	require.Len(t, provider.requests, 1)
	assert.Equal(t, "hello", provider.requests[0].Query)
	assert.Equal(t, "alice", provider.requests[0].UserID)
	assert.Empty(t, provider.requests[0].ThreadID)
}

func TestSendAdoptsReturnedThread(t *testing.T) {
	provider := &fakeProvider{response: &llm.Response{Reply: "hi", ThreadID: "t-1"}}
	session := NewSession(provider, userResolver("alice"), testOptions)

	var notified []string
	session.OnThreadChange(func(threadID string) {
		notified = append(notified, threadID)
	})

	session.Send(context.Background(), "hello")
	assert.Equal(t, "t-1", session.ThreadID())
	assert.Equal(t, []string{"t-1"}, notified)

	// Same thread id again: no second notification.
	session.Send(context.Background(), "more")
	assert.Equal(t, []string{"t-1"}, notified)
	require.Len(t, provider.requests, 2)
	assert.Equal(t, "t-1", provider.requests[1].ThreadID)
}

func TestSendEmptyReplyUsesEllipsis(t *testing.T) {
	provider := &fakeProvider{response: &llm.Response{}}
	session := NewSession(provider, userResolver("alice"), testOptions)

	session.Send(context.Background(), "hello")

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "...", messages[1].Content)
	assert.False(t, messages[1].Pending)
}

func TestSendFailureFallsBack(t *testing.T) {
	provider := &fakeProvider{err: errors.New("network down")}
	session := NewSession(provider, userResolver("alice"), testOptions)

	session.Send(context.Background(), "hello")

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, testOptions.FallbackAssistantMessage, messages[1].Content)
	assert.False(t, messages[1].Pending)
	assert.False(t, messages[1].Error)
	assert.Equal(t, "fallback-thread", session.ThreadID())
	assert.False(t, session.IsSending())
}

func TestSendFailureKeepsExistingThread(t *testing.T) {
	provider := &fakeProvider{response: &llm.Response{Reply: "hi", ThreadID: "t-1"}}
	session := NewSession(provider, userResolver("alice"), testOptions)
	session.Send(context.Background(), "hello")

	provider.err = errors.New("network down")
	session.Send(context.Background(), "again")

	assert.Equal(t, "t-1", session.ThreadID())
}

func TestSendRejectedWithoutUser(t *testing.T) {
	provider := &fakeProvider{response: &llm.Response{Reply: "hi"}}
	session := NewSession(provider, userResolver("  "), testOptions)

	session.Send(context.Background(), "hello")

	// No request goes out; the turn settles on the fallback reply.
	assert.Empty(t, provider.requests)
	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, testOptions.FallbackAssistantMessage, messages[1].Content)
}

func TestSendRejectsBlankContent(t *testing.T) {
	provider := &fakeProvider{response: &llm.Response{Reply: "hi"}}
	session := NewSession(provider, userResolver("alice"), testOptions)

	session.Send(context.Background(), "   \n ")

	assert.Empty(t, session.Messages())
	assert.Empty(t, provider.requests)
}

func TestSendSerialized(t *testing.T) {
	session := NewSession(nil, userResolver("alice"), testOptions)

	// A provider that re-enters Send while the first call is in flight.
	reentrant := &reentrantProvider{session: session}
	session.provider = reentrant

	session.Send(context.Background(), "first")

	// The nested Send must have been rejected by the in-flight gate.
	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.False(t, session.IsSending())
}

type reentrantProvider struct {
	session *Session
	nested  bool
}

func (p *reentrantProvider) Send(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if !p.nested {
		p.nested = true
		p.session.Send(ctx, "second")
	}
	return &llm.Response{Reply: "ok"}, nil
}

func (p *reentrantProvider) Name() string { return "reentrant" }

func TestHistoryInvariant(t *testing.T) {
	provider := &fakeProvider{response: &llm.Response{Reply: "hi"}}
	session := NewSession(provider, userResolver("alice"), testOptions)

	sends := []string{"one", "", "two", "   ", "three"}
	accepted := 0
	for _, content := range sends {
		session.Send(context.Background(), content)
		if len(session.Messages()) == 2*(accepted+1) {
			accepted++
		}
	}

	messages := session.Messages()
	assert.Len(t, messages, 2*accepted)
	for _, msg := range messages {
		assert.False(t, msg.Pending)
	}
}

func TestFeedbackToggleIdempotent(t *testing.T) {
	session := sessionWithReply(t, "hi")
	id := session.Messages()[1].ID

	session.ToggleFeedback(id, FeedbackUp)
	assert.Equal(t, FeedbackUp, session.Messages()[1].Feedback)

	session.ToggleFeedback(id, FeedbackUp)
	msg := session.Messages()[1]
	assert.Equal(t, FeedbackNone, msg.Feedback)
	assert.Empty(t, msg.FeedbackComment)
	assert.Empty(t, msg.FeedbackDraft)
	assert.False(t, msg.FeedbackSubmitted)
}

func TestFeedbackUpAndDownExclusive(t *testing.T) {
	session := sessionWithReply(t, "hi")
	id := session.Messages()[1].ID

	session.ToggleFeedback(id, FeedbackDown)
	session.SetFeedbackDraft(id, "too vague")
	session.SubmitFeedback(id)

	session.ToggleFeedback(id, FeedbackUp)
	msg := session.Messages()[1]
	assert.Equal(t, FeedbackUp, msg.Feedback)
	assert.Empty(t, msg.FeedbackComment)
	assert.False(t, msg.FeedbackSubmitted)
}

func TestFeedbackCommentLifecycle(t *testing.T) {
	session := sessionWithReply(t, "hi")
	id := session.Messages()[1].ID

	session.ToggleFeedback(id, FeedbackDown)
	session.SetFeedbackDraft(id, "  needs sources  ")
	session.SubmitFeedback(id)

	msg := session.Messages()[1]
	assert.Equal(t, "needs sources", msg.FeedbackComment)
	assert.True(t, msg.FeedbackSubmitted)

	// Editing reseeds the draft and reopens submission.
	session.EditFeedback(id)
	msg = session.Messages()[1]
	assert.False(t, msg.FeedbackSubmitted)
	assert.Equal(t, "needs sources", msg.FeedbackDraft)

	// Submitting an all-whitespace draft clears the comment but still counts.
	session.SetFeedbackDraft(id, "   ")
	session.SubmitFeedback(id)
	msg = session.Messages()[1]
	assert.Empty(t, msg.FeedbackComment)
	assert.True(t, msg.FeedbackSubmitted)
}

func TestFeedbackRejectedOnPendingMessage(t *testing.T) {
	session := NewSession(nil, userResolver("alice"), testOptions)
	checker := &pendingFeedbackProvider{session: session, t: t}
	session.provider = checker

	session.Send(context.Background(), "hello")
	require.True(t, checker.checked)
}

type pendingFeedbackProvider struct {
	session *Session
	t       *testing.T
	checked bool
}

func (p *pendingFeedbackProvider) Send(ctx context.Context, req llm.Request) (*llm.Response, error) {
	pending := p.session.Messages()[1]
	require.True(p.t, pending.Pending)

	p.session.ToggleFeedback(pending.ID, FeedbackDown)
	assert.Equal(p.t, FeedbackNone, p.session.Messages()[1].Feedback)
	p.checked = true

	return &llm.Response{Reply: "ok"}, nil
}

func (p *pendingFeedbackProvider) Name() string { return "pending-check" }

func TestResetConversation(t *testing.T) {
	provider := &fakeProvider{response: &llm.Response{Reply: "hi", ThreadID: "t-1"}}
	session := NewSession(provider, userResolver("alice"), testOptions)
	composer := NewComposer(nil, func(string) {}, nil)
	composer.SetDraft("leftover")
	session.BindComposer(composer)

	var notified []string
	session.OnThreadChange(func(threadID string) {
		notified = append(notified, threadID)
	})

	session.Send(context.Background(), "hello")
	session.ResetConversation()

	assert.Empty(t, session.Messages())
	assert.Empty(t, session.ThreadID())
	assert.False(t, session.IsSending())
	assert.Empty(t, composer.Draft())
	assert.Equal(t, []string{"t-1", ""}, notified)
}

type captureRecorder struct {
	threadIDs  []string
	users      []Message
	assistants []Message
}

func (r *captureRecorder) RecordTurn(threadID string, user, assistant Message) error {
	r.threadIDs = append(r.threadIDs, threadID)
	r.users = append(r.users, user)
	r.assistants = append(r.assistants, assistant)
	return nil
}

func TestRecorderReceivesSettledTurns(t *testing.T) {
	provider := &fakeProvider{response: &llm.Response{Reply: "hi", ThreadID: "t-1"}}
	session := NewSession(provider, userResolver("alice"), testOptions)
	recorder := &captureRecorder{}
	session.SetRecorder(recorder)

	session.Send(context.Background(), "hello")

	require.Len(t, recorder.users, 1)
	assert.Equal(t, []string{"t-1"}, recorder.threadIDs)
	assert.Equal(t, "hello", recorder.users[0].Content)
	assert.Equal(t, "hi", recorder.assistants[0].Content)
	assert.False(t, recorder.assistants[0].Pending)
}

func sessionWithReply(t *testing.T, reply string) *Session {
	t.Helper()
	provider := &fakeProvider{response: &llm.Response{Reply: reply}}
	session := NewSession(provider, userResolver("alice"), testOptions)
	session.Send(context.Background(), "hello")
	require.Len(t, session.Messages(), 2)
	return session
}

type feedbackCaptureRecorder struct {
	captureRecorder
	feedbackThreads []string
	feedback        []Message
}

func (r *feedbackCaptureRecorder) RecordFeedback(threadID string, message Message) error {
	r.feedbackThreads = append(r.feedbackThreads, threadID)
	r.feedback = append(r.feedback, message)
	return nil
}

func TestRecorderReceivesFeedbackChanges(t *testing.T) {
	provider := &fakeProvider{response: &llm.Response{Reply: "hi", ThreadID: "t-1"}}
	session := NewSession(provider, userResolver("alice"), testOptions)
	recorder := &feedbackCaptureRecorder{}
	session.SetRecorder(recorder)

	session.Send(context.Background(), "hello")
	assistantID := session.Messages()[1].ID

	session.ToggleFeedback(assistantID, FeedbackDown)
	session.SetFeedbackDraft(assistantID, "  missed the point  ")
	session.SubmitFeedback(assistantID)

	// Toggle and submit each reach the recorder; the draft edit does not.
	require.Len(t, recorder.feedback, 2)
	assert.Equal(t, []string{"t-1", "t-1"}, recorder.feedbackThreads)
	assert.Equal(t, FeedbackDown, recorder.feedback[0].Feedback)
	assert.Equal(t, FeedbackDown, recorder.feedback[1].Feedback)
	assert.Equal(t, "missed the point", recorder.feedback[1].FeedbackComment)

	session.ToggleFeedback(assistantID, FeedbackDown)
	require.Len(t, recorder.feedback, 3)
	assert.Equal(t, FeedbackNone, recorder.feedback[2].Feedback)
	assert.Empty(t, recorder.feedback[2].FeedbackComment)
}

func TestFeedbackOnPendingMessageNotRecorded(t *testing.T) {
	session := NewSession(nil, userResolver("alice"), testOptions)
	recorder := &feedbackCaptureRecorder{}
	session.SetRecorder(recorder)
	session.provider = &pendingFeedbackProvider{session: session, t: t}

	session.Send(context.Background(), "hello")

	assert.Empty(t, recorder.feedback)
}

func TestCancelFeedbackRecorded(t *testing.T) {
	provider := &fakeProvider{response: &llm.Response{Reply: "hi", ThreadID: "t-1"}}
	session := NewSession(provider, userResolver("alice"), testOptions)
	recorder := &feedbackCaptureRecorder{}
	session.SetRecorder(recorder)

	session.Send(context.Background(), "hello")
	assistantID := session.Messages()[1].ID

	session.ToggleFeedback(assistantID, FeedbackUp)
	session.CancelFeedback(assistantID)

	require.Len(t, recorder.feedback, 2)
	assert.Equal(t, FeedbackNone, recorder.feedback[1].Feedback)
}

type failingRecorder struct{}

func (failingRecorder) RecordTurn(string, Message, Message) error {
	return errors.New("disk full")
}

func TestRecorderFailureLoggedNotFatal(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	logger, err := utils.NewLogger(logPath)
	require.NoError(t, err)
	defer logger.Close()

	provider := &fakeProvider{response: &llm.Response{Reply: "hi", ThreadID: "t-1"}}
	session := NewSession(provider, userResolver("alice"), testOptions)
	session.SetRecorder(failingRecorder{})
	session.SetLogger(logger)

	session.Send(context.Background(), "hello")

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "hi", messages[1].Content)
	assert.False(t, session.IsSending())

	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "Failed to archive turn")
	assert.Contains(t, string(logged), "disk full")
}
