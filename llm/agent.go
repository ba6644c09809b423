package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// AgentProvider talks to a remote AI agent endpoint over plain HTTP using the
// {query, user_id, thread_id} wire contract.
type AgentProvider struct {
	config Config
	client *http.Client
}

// NewAgentProvider creates a new agent endpoint provider
func NewAgentProvider(config Config) (*AgentProvider, error) {
	if config.BaseURL == "" {
		return nil, errors.New("agent endpoint URL is required")
	}
	if config.ProviderName == "" {
		config.ProviderName = "Agent"
	}

	// Agent replies can take a long time, so there is no overall request
	// timeout; only the connection phases are bounded.
	client := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 120 * time.Second,
		},
	}

	return &AgentProvider{
		config: config,
		client: client,
	}, nil
}

// Send issues one conversation turn to the agent endpoint
func (p *AgentProvider) Send(ctx context.Context, request Request) (*Response, error) {
	if request.UserID == "" {
		return nil, errors.New("cannot send chat request without an authenticated user")
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.config.BaseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("agent error: status %d: %s", resp.StatusCode, string(body))
	}

	var agentResp Response
	if err := json.NewDecoder(resp.Body).Decode(&agentResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &agentResp, nil
}

// Name returns the provider name
func (p *AgentProvider) Name() string {
	return p.config.ProviderName
}
