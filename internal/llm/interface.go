package llm

import (
	"context"

	"pincrawl/pkg/models"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// ExtractAd processes raw ad markdown and extracts structured ad data
	ExtractAd(ctx context.Context, content, url string) (*models.Extraction, error)

	// IsHealthy checks if the LLM provider is healthy and available
	IsHealthy(ctx context.Context) error

	// GetProviderName returns the name of the LLM provider
	GetProviderName() string
}
