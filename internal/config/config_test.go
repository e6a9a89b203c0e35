package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pincrawl/pkg/utils"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "firecrawl", cfg.Scraper.Provider)
	assert.Equal(t, 30, cfg.Scraper.RateLimit)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 512, cfg.Embedding.Dimensions)
	assert.InDelta(t, 0.55, cfg.Matcher.Threshold, 0.001)
	assert.Equal(t, 5, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, 10, cfg.Pipeline.MaxFailures)
	assert.Equal(t, 60*time.Second, cfg.Pipeline.CallTimeout)
	assert.Equal(t, "pincrawl", cfg.Pinecone.IndexName)
	assert.Equal(t, "aws", cfg.Pinecone.Cloud)
	assert.Equal(t, "us-east-1", cfg.Pinecone.Region)
}

func TestLoadConfigFromYAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_SB_KEY", "sb-secret")

	yamlContent := `
database:
  driver: sqlite
  dsn: pincrawl.db
crawler:
  queries:
    - https://www.leboncoin.fr/recherche?text=flipper
scraper:
  provider: scrapingbee
  rate_limit: 10
scrapingbee:
  api_key: ${TEST_SB_KEY}
matcher:
  threshold: 0.7
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "pincrawl.db", cfg.Database.DSN)
	assert.Equal(t, "scrapingbee", cfg.Scraper.Provider)
	assert.Equal(t, 10, cfg.Scraper.RateLimit)
	assert.Equal(t, "sb-secret", cfg.ScrapingBee.APIKey)
	assert.InDelta(t, 0.7, cfg.Matcher.Threshold, 0.001)
	require.Len(t, cfg.Crawler.Queries, 1)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-host/pincrawl")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("MATCHER_THRESHOLD", "0.8")
	t.Setenv("PINECONE_INDEX_NAME", "pincrawl-staging")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-host/pincrawl", cfg.Database.DSN)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.InDelta(t, 0.8, cfg.Matcher.Threshold, 0.001)
	assert.Equal(t, "pincrawl-staging", cfg.Pinecone.IndexName)
}

func TestOpenAIKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-shared")
	t.Setenv("LLM_API_KEY", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sk-shared", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-shared", cfg.LLM.APIKey)
}

func validConfig() *Config {
	cfg := &Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "pincrawl.db"
	cfg.Crawler.Queries = []string{"https://www.leboncoin.fr/recherche?text=flipper"}
	cfg.Crawler.AdURLPattern = `^https://www\.leboncoin\.fr/ad/.+/\d+$`
	cfg.Scraper.Provider = "firecrawl"
	cfg.Firecrawl.APIKey = "fc-key"
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "sk-llm"
	cfg.Embedding.APIKey = "sk-embed"
	cfg.Pinecone.APIKey = "pc-key"
	cfg.Pinecone.IndexHost = "pincrawl-abc123.svc.pinecone.io"
	cfg.Matcher.Threshold = 0.55
	return cfg
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing queries", func(c *Config) { c.Crawler.Queries = nil }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"bad scraper provider", func(c *Config) { c.Scraper.Provider = "selenium" }},
		{"missing firecrawl key", func(c *Config) { c.Firecrawl.APIKey = "" }},
		{"missing llm key", func(c *Config) { c.LLM.APIKey = "" }},
		{"missing embedding key", func(c *Config) { c.Embedding.APIKey = "" }},
		{"missing pinecone key", func(c *Config) { c.Pinecone.APIKey = "" }},
		{"missing pinecone host", func(c *Config) { c.Pinecone.IndexHost = "" }},
		{"threshold out of range", func(c *Config) { c.Matcher.Threshold = 1.5 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var confErr *utils.ConfigurationError
			assert.ErrorAs(t, err, &confErr)
		})
	}
}

func TestValidateScrapingBeeRequiresItsOwnKey(t *testing.T) {
	cfg := validConfig()
	cfg.Scraper.Provider = "scrapingbee"
	cfg.Firecrawl.APIKey = ""

	err := cfg.Validate()
	require.Error(t, err)

	cfg.ScrapingBee.APIKey = "sb-key"
	require.NoError(t, cfg.Validate())
}
