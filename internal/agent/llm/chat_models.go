package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	amodel "github.com/waypoint-agents/server/internal/agent/model"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	Providers amodel.ProviderConfig
	Primary   amodel.PrimaryModelConfig
	Fallback  amodel.FallbackModelConfig
	Summary   amodel.SummaryModelConfig
}

// ChatModels holds every hosted model the planner talks to.
// Primary and Summary are Gemini models; Fallback is an OpenAI-compatible model
// from a second provider so a Gemini outage does not take the whole day down.
type ChatModels struct {
	Primary           model.ToolCallingChatModel
	Fallback          model.ToolCallingChatModel
	Summary           model.ToolCallingChatModel
	PrimaryModelName  string
	FallbackModelName string
	SummaryModelName  string
}

// NewChatModels creates all chat models with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.Providers.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.Providers.GeminiBaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.Providers.GeminiBaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	primary, err := newGeminiModel(ctx, client, config.Primary.Model, config.Primary.Temperature, config.Primary.MaxTokens)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating primary model")
		return nil, fmt.Errorf("error creating primary model: %w", err)
	}

	summary, err := newGeminiModel(ctx, client, config.Summary.Model, config.Summary.Temperature, config.Summary.MaxTokens)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating summary model")
		return nil, fmt.Errorf("error creating summary model: %w", err)
	}

	fallback := NewOpenAIChatModel(OpenAIConfig{
		APIKey:      config.Providers.OpenAIAPIKey,
		BaseURL:     config.Providers.OpenAIBaseURL,
		Model:       config.Fallback.Model,
		Temperature: config.Fallback.Temperature,
		MaxTokens:   config.Fallback.MaxTokens,
	})

	logx.Debug().
		Str("primary", config.Primary.Model).
		Str("fallback", config.Fallback.Model).
		Str("summary", config.Summary.Model).
		Msg("Chat models created")

	return &ChatModels{
		Primary:           primary,
		Fallback:          fallback,
		Summary:           summary,
		PrimaryModelName:  config.Primary.Model,
		FallbackModelName: config.Fallback.Model,
		SummaryModelName:  config.Summary.Model,
	}, nil
}

func newGeminiModel(ctx context.Context, client *genai.Client, name string, temperature float32, maxTokens int) (*gemini.ChatModel, error) {
	return gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       name,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(1024)),
		},
	})
}
