package scraper

import (
	"context"

	"pincrawl/pkg/models"
)

// Scraper defines the interface for all scraping backends. Both operations
// fail with a typed *utils.ProviderError so the orchestrator can distinguish
// provider outages from ads that genuinely have no content.
type Scraper interface {
	// Links fetches a search results page and returns the links found on it
	Links(ctx context.Context, searchURL string) (*models.LinksResult, error)

	// Scrape fetches a single ad page and returns its content as markdown
	Scrape(ctx context.Context, url string) (*models.ScrapeResult, error)

	// Name returns the backend identifier
	Name() string

	// IsHealthy returns true if the backend is configured and ready
	IsHealthy() bool

	// Cleanup releases any resources used by the backend
	Cleanup()
}

// Factory creates scrapers based on the configured provider
type Factory interface {
	// CreateScraper creates a new scraper instance for the given provider
	CreateScraper(provider string) (Scraper, error)

	// GetSupportedProviders returns a list of supported provider names
	GetSupportedProviders() []string
}
