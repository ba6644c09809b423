package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompletionServer(t *testing.T, delay time.Duration, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}]
		}`, reply)
	}))
}

func TestOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(Config{})
	assert.Error(t, err)
}

func TestOpenAIProviderRequiresUser(t *testing.T) {
	provider, err := NewOpenAIProvider(Config{APIKey: "test-key"})
	require.NoError(t, err)

	_, err = provider.Send(context.Background(), Request{Query: "hello"})
	assert.Error(t, err)
}

func TestOpenAIProviderMintsAndKeepsThread(t *testing.T) {
	server := newCompletionServer(t, 0, "hi there")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
	})
	require.NoError(t, err)

	first, err := provider.Send(context.Background(), Request{Query: "hello", UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", first.ReplyText())
	require.NotEmpty(t, first.ThreadID)

	second, err := provider.Send(context.Background(), Request{
		Query:    "and again",
		UserID:   "alice",
		ThreadID: first.ThreadID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ThreadID, second.ThreadID)

	// Two full turns accumulated on the one thread
	assert.Len(t, provider.threads[first.ThreadID], 4)
}

func TestOpenAIProviderHonorsTimeout(t *testing.T) {
	server := newCompletionServer(t, 1500*time.Millisecond, "late")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
		Timeout: 1,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = provider.Send(context.Background(), Request{Query: "hello", UserID: "alice"})

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 1400*time.Millisecond)
}
