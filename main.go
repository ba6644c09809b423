package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"agent-chat-client/chat"
	"agent-chat-client/db"
	"agent-chat-client/extract"
	"agent-chat-client/identity"
	"agent-chat-client/llm"
	"agent-chat-client/speech"
	"agent-chat-client/utils"
)

var (
	version = "0.1.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Agent Chat Client v%s\n", version)
		os.Exit(0)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.GetLogPath())
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting Agent Chat Client v%s", version)

	// Load or create default configuration
	var config *utils.Config
	actualConfigPath := *configPath
	if actualConfigPath == "" {
		actualConfigPath, err = utils.EnsureDefaultConfig()
		if err != nil {
			logger.Error("Failed to create default config: %v", err)
			os.Exit(1)
		}
		logger.Info("Using config file: %s", actualConfigPath)
	}

	config, err = utils.LoadConfig(actualConfigPath)
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Initialize database
	database, err := db.New(config.Data.DBPath)
	if err != nil {
		logger.Error("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	logger.Info("Database initialized: %s", config.Data.DBPath)

	out := newOutput()
	sink := utils.NewRemoteSink(config.Logging.EndpointURL, logger)

	// Identity: enterprise single sign-on when configured, password
	// sign-in otherwise
	enterprise := identity.NewEnterpriseProvider(config.Enterprise, logger, func(verificationURL, code string) {
		out.Boldf("To sign in, open %s and enter code %s", verificationURL, code)
	})
	auth := identity.NewService(enterprise, sink)

	ctx := context.Background()
	auth.RestoreSession(ctx)

	provider, err := buildProvider(config)
	if err != nil {
		logger.Error("Failed to initialize AI provider: %v", err)
		os.Exit(1)
	}
	logger.Info("Using AI provider: %s", provider.Name())

	// Wire the conversation session, composer and dictation capture
	session := chat.NewSession(provider, auth.ResolveUserIdentifier, chat.Options{
		FallbackAssistantMessage: config.AI.FallbackAssistantMessage,
		FallbackThreadID:         config.AI.FallbackThreadID,
	})
	session.SetRecorder(db.NewTurnRecorder(database))
	session.SetLogger(logger)

	composer := chat.NewComposer(extract.NewExtractor(), func(message string) {
		session.Send(ctx, message)
	}, session.IsSending)
	session.BindComposer(composer)

	// Terminal sessions have no microphone capture; the toggle reports
	// dictation as unavailable.
	dictation := chat.NewDictationCapture(speech.Unsupported{}, composer)

	app := newREPL(session, composer, dictation, auth, database, out, logger)

	logger.Info("Application started")
	app.Run(ctx)
	logger.Info("Application stopped")
}

// buildProvider selects the configured AI backend: an OpenAI-compatible API
// when enabled, else the agent endpoint.
func buildProvider(config *utils.Config) (llm.Provider, error) {
	if config.OpenAI.Enabled && config.OpenAI.APIKey != "" {
		return llm.NewOpenAIProvider(llm.Config{
			APIKey:      config.OpenAI.APIKey,
			BaseURL:     config.OpenAI.BaseURL,
			Model:       config.OpenAI.Model,
			MaxTokens:   config.OpenAI.MaxTokens,
			Temperature: config.OpenAI.Temperature,
		})
	}

	return llm.NewAgentProvider(llm.Config{
		BaseURL: config.AI.EndpointURL,
	})
}
