package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pincrawl/internal/config"
)

func TestFactoryCreatesConfiguredProviders(t *testing.T) {
	cfg := &config.Config{}
	cfg.Firecrawl.APIKey = "fc-test"
	cfg.Firecrawl.APIURL = "https://api.firecrawl.dev"
	cfg.ScrapingBee.APIKey = "sb-test"
	cfg.ScrapingBee.APIURL = "https://app.scrapingbee.com/api/v1"

	factory := NewFactory(cfg)

	for _, provider := range factory.GetSupportedProviders() {
		sc, err := factory.CreateScraper(provider)
		require.NoError(t, err, provider)
		assert.Equal(t, provider, sc.Name())
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	factory := NewFactory(&config.Config{})

	_, err := factory.CreateScraper("selenium")
	assert.Error(t, err)
}
