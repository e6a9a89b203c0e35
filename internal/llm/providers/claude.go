package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"pincrawl/internal/config"
	"pincrawl/internal/logging"
	"pincrawl/pkg/models"
	"pincrawl/pkg/utils"
)

// ClaudeProvider implements the LLM provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client anthropic.Client
	config *config.Config
	logger logging.Logger
}

// NewClaudeProvider creates a new Claude provider instance
func NewClaudeProvider(cfg *config.Config) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
	)

	return &ClaudeProvider{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// ExtractAd processes raw ad markdown and extracts structured ad data
func (p *ClaudeProvider) ExtractAd(ctx context.Context, content, url string) (*models.Extraction, error) {
	startTime := time.Now()

	p.logger.Debug("Starting ad extraction", map[string]interface{}{
		"url":            url,
		"content_length": len(content),
		"provider":       "claude",
	})

	prompt := buildExtractionPrompt(content)

	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.config.LLM.Model),
		MaxTokens:   int64(p.config.LLM.MaxTokens),
		Temperature: anthropic.Float(float64(p.config.LLM.Temperature)),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return nil, utils.NewProviderError("claude", "messages", utils.RetryNow, err)
	}

	if len(response.Content) == 0 {
		return nil, utils.NewMalformedExtractionError("empty response", nil)
	}

	var responseText string
	for _, block := range response.Content {
		textContent := block.AsText()
		responseText = textContent.Text
		break
	}

	extraction, err := parseExtractionResponse(responseText)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Ad extraction completed", map[string]interface{}{
		"url":             url,
		"title":           extraction.Info.Title,
		"has_product":     extraction.Product != nil,
		"processing_time": time.Since(startTime).String(),
		"provider":        "claude",
	})

	return extraction, nil
}

// IsHealthy checks if the Claude provider is healthy and available
func (p *ClaudeProvider) IsHealthy(ctx context.Context) error {
	if p.config.LLM.APIKey == "" {
		return fmt.Errorf("Claude API key not configured - set LLM_API_KEY environment variable")
	}

	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.LLM.Model),
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: "Hello"},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return fmt.Errorf("Claude API health check failed: %w", err)
	}

	return nil
}

// GetProviderName returns the name of the LLM provider
func (p *ClaudeProvider) GetProviderName() string {
	return "claude"
}
