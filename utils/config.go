package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Built-in defaults used when neither the config file nor the environment
// supplies a value.
const (
	DefaultAIEndpoint       = "http://test-ai/agent"
	DefaultFallbackThreadID = "fallback-thread"
	DefaultFallbackMessage  = "The API call to the back end AI failed, returning the default message."
	DefaultLoggingEndpoint  = "http://localhost:4000/api/logs"

	placeholderClientID = "REPLACE_WITH_CLIENT_ID"
	placeholderTenantID = "REPLACE_WITH_TENANT_ID_OR_COMMON"
)

// Config represents the application configuration
type Config struct {
	AI         AIConfig         `json:"ai"`
	Enterprise EnterpriseConfig `json:"enterprise_auth"`
	Logging    LoggingConfig    `json:"logging"`
	Data       DataConfig       `json:"data"`
	OpenAI     OpenAIConfig     `json:"openai,omitempty"`
}

// AIConfig points at the remote agent endpoint and carries the fallbacks used
// when it is unreachable.
type AIConfig struct {
	EndpointURL              string `json:"endpoint_url"`
	FallbackThreadID         string `json:"fallback_thread_id"`
	FallbackAssistantMessage string `json:"fallback_assistant_message"`
}

// EnterpriseConfig configures the enterprise identity provider
type EnterpriseConfig struct {
	ClientID    string   `json:"client_id"`
	TenantID    string   `json:"tenant_id"`
	RedirectURI string   `json:"redirect_uri"`
	Scopes      []string `json:"scopes"`
	TokenPath   string   `json:"token_path,omitempty"`
}

// Enabled reports whether the enterprise provider is configured. Absent or
// placeholder client/tenant ids disable the feature.
func (c EnterpriseConfig) Enabled() bool {
	clientID := strings.TrimSpace(c.ClientID)
	tenantID := strings.TrimSpace(c.TenantID)
	return clientID != "" && tenantID != "" &&
		!strings.HasPrefix(clientID, "REPLACE_") && !strings.HasPrefix(tenantID, "REPLACE_")
}

// LoggingConfig points at the auxiliary logging endpoint
type LoggingConfig struct {
	EndpointURL string `json:"endpoint_url"`
}

// DataConfig represents data storage configuration
type DataConfig struct {
	DBPath string `json:"db_path"`
}

// OpenAIConfig configures the optional OpenAI-compatible provider used in
// place of the agent endpoint.
type OpenAIConfig struct {
	Enabled     bool    `json:"enabled"`
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url,omitempty"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// LoadConfig loads configuration from file and applies environment overrides
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&config)
	ApplyEnvOverrides(&config)

	if config.Data.DBPath != "" {
		config.Data.DBPath = expandPath(config.Data.DBPath)
	}

	return &config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(configPath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnvOverrides resolves CHAT_APP_* environment variables over the file
// values. A .env file in the working directory is honoured when present.
func ApplyEnvOverrides(config *Config) {
	_ = godotenv.Load()

	config.AI.EndpointURL = resolveValue(os.Getenv("CHAT_APP_AI_API_URL"), config.AI.EndpointURL)
	config.AI.FallbackThreadID = resolveValue(os.Getenv("CHAT_APP_FALLBACK_THREAD_ID"), config.AI.FallbackThreadID)
	config.AI.FallbackAssistantMessage = resolveValue(os.Getenv("CHAT_APP_FALLBACK_MESSAGE"), config.AI.FallbackAssistantMessage)
	config.Logging.EndpointURL = resolveValue(os.Getenv("CHAT_APP_LOGGING_API_URL"), config.Logging.EndpointURL)
	config.Enterprise.ClientID = resolveValue(os.Getenv("CHAT_APP_SSO_CLIENT_ID"), config.Enterprise.ClientID)
	config.Enterprise.TenantID = resolveValue(os.Getenv("CHAT_APP_SSO_TENANT_ID"), config.Enterprise.TenantID)
	config.Enterprise.RedirectURI = resolveValue(os.Getenv("CHAT_APP_SSO_REDIRECT_URI"), config.Enterprise.RedirectURI)
	config.Enterprise.Scopes = parseScopes(os.Getenv("CHAT_APP_SSO_SCOPES"), config.Enterprise.Scopes)
	config.OpenAI.APIKey = resolveValue(os.Getenv("CHAT_APP_OPENAI_API_KEY"), config.OpenAI.APIKey)
}

func applyDefaults(config *Config) {
	config.AI.EndpointURL = resolveValue(config.AI.EndpointURL, DefaultAIEndpoint)
	config.AI.FallbackThreadID = resolveValue(config.AI.FallbackThreadID, DefaultFallbackThreadID)
	config.AI.FallbackAssistantMessage = resolveValue(config.AI.FallbackAssistantMessage, DefaultFallbackMessage)
	config.Logging.EndpointURL = resolveValue(config.Logging.EndpointURL, DefaultLoggingEndpoint)
	config.Enterprise.ClientID = resolveValue(config.Enterprise.ClientID, placeholderClientID)
	config.Enterprise.TenantID = resolveValue(config.Enterprise.TenantID, placeholderTenantID)
	config.Enterprise.RedirectURI = resolveValue(config.Enterprise.RedirectURI, "http://localhost:4200")
	if len(config.Enterprise.Scopes) == 0 {
		config.Enterprise.Scopes = []string{"User.Read"}
	}
	config.Data.DBPath = resolveValue(config.Data.DBPath, "./data/chat.db")
}

// resolveValue prefers value when it is non-blank, else the fallback.
func resolveValue(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseScopes(value string, fallback []string) []string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	var scopes []string
	for _, scope := range strings.Split(value, ",") {
		if scope = strings.TrimSpace(scope); scope != "" {
			scopes = append(scopes, scope)
		}
	}

	if len(scopes) == 0 {
		return fallback
	}
	return scopes
}

// expandPath expands ~ and relative paths
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}

	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	absPath, err := filepath.Abs(path)
	if err == nil {
		return absPath
	}

	return path
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "./config/default.json"
	}

	return filepath.Join(configDir, "agent-chat-client", "config.json")
}

// EnsureDefaultConfig creates a default config file if it doesn't exist
func EnsureDefaultConfig() (string, error) {
	configPath := GetConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	defaultConfig := &Config{}
	applyDefaults(defaultConfig)

	if err := SaveConfig(configPath, defaultConfig); err != nil {
		return "", err
	}

	return configPath, nil
}
