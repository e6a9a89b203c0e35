package scraper

import (
	"fmt"

	"pincrawl/internal/config"
	"pincrawl/internal/scraper/engines/firecrawl"
	"pincrawl/internal/scraper/engines/scrapingbee"
)

// DefaultFactory implements Factory
type DefaultFactory struct {
	config *config.Config
}

// NewFactory creates a new scraper factory
func NewFactory(cfg *config.Config) Factory {
	return &DefaultFactory{config: cfg}
}

// CreateScraper creates a new scraper instance for the given provider
func (f *DefaultFactory) CreateScraper(provider string) (Scraper, error) {
	switch provider {
	case "firecrawl":
		return firecrawl.NewScraper(f.config)
	case "scrapingbee":
		return scrapingbee.NewScraper(f.config)
	default:
		return nil, fmt.Errorf("unsupported scraping provider: %s", provider)
	}
}

// GetSupportedProviders returns a list of supported provider names
func (f *DefaultFactory) GetSupportedProviders() []string {
	return []string{"firecrawl", "scrapingbee"}
}
