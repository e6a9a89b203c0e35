package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"pincrawl/internal/config"
	"pincrawl/internal/logging"
	"pincrawl/pkg/models"
	"pincrawl/pkg/utils"
)

// OpenAIProvider implements the LLM provider interface using the OpenAI API
type OpenAIProvider struct {
	client openai.Client
	config *config.Config
	logger logging.Logger
}

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(cfg *config.Config) *OpenAIProvider {
	client := openai.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
	)

	return &OpenAIProvider{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// ExtractAd processes raw ad markdown and extracts structured ad data
func (p *OpenAIProvider) ExtractAd(ctx context.Context, content, url string) (*models.Extraction, error) {
	startTime := time.Now()

	p.logger.Debug("Starting ad extraction", map[string]interface{}{
		"url":            url,
		"content_length": len(content),
		"provider":       "openai",
	})

	prompt := buildExtractionPrompt(content)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.config.LLM.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(p.config.LLM.MaxTokens)),
		Temperature: openai.Float(float64(p.config.LLM.Temperature)),
	})
	if err != nil {
		return nil, utils.NewProviderError("openai", "chat", utils.RetryNow, err)
	}

	if len(resp.Choices) == 0 {
		return nil, utils.NewMalformedExtractionError("no choices in response", nil)
	}

	extraction, err := parseExtractionResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Ad extraction completed", map[string]interface{}{
		"url":             url,
		"title":           extraction.Info.Title,
		"has_product":     extraction.Product != nil,
		"processing_time": time.Since(startTime).String(),
		"provider":        "openai",
	})

	return extraction, nil
}

// IsHealthy checks if the OpenAI provider is healthy and available
func (p *OpenAIProvider) IsHealthy(ctx context.Context) error {
	if p.config.LLM.APIKey == "" {
		return fmt.Errorf("OpenAI API key not configured - set LLM_API_KEY environment variable")
	}

	_, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.config.LLM.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hello"),
		},
		MaxTokens: openai.Int(16),
	})
	if err != nil {
		return fmt.Errorf("OpenAI API health check failed: %w", err)
	}

	return nil
}

// GetProviderName returns the name of the LLM provider
func (p *OpenAIProvider) GetProviderName() string {
	return "openai"
}
