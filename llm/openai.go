package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface against any
// OpenAI-compatible chat completion API. It keeps the per-thread transcript
// locally, since those APIs have no server-side thread notion.
type OpenAIProvider struct {
	client  *openai.Client
	config  Config
	threads map[string][]openai.ChatCompletionMessage
}

// NewOpenAIProvider creates a new OpenAI-compatible provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		}
	}

	if config.Model == "" {
		config.Model = openai.GPT4TurboPreview
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.ProviderName == "" {
		config.ProviderName = "OpenAI Compatible"
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		threads: make(map[string][]openai.ChatCompletionMessage),
	}, nil
}

// Send issues one conversation turn. An empty ThreadID starts a new local
// thread; the minted identifier is returned so the caller can continue it.
func (p *OpenAIProvider) Send(ctx context.Context, request Request) (*Response, error) {
	if request.UserID == "" {
		return nil, errors.New("cannot send chat request without an authenticated user")
	}

	threadID := request.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	history := append(p.threads[threadID], openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: request.Query,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    history,
		MaxTokens:   p.config.MaxTokens,
		Temperature: float32(p.config.Temperature),
		User:        request.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response choices returned")
	}

	reply := resp.Choices[0].Message.Content
	p.threads[threadID] = append(history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: reply,
	})

	return &Response{
		Response: reply,
		ThreadID: threadID,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.config.ProviderName
}
