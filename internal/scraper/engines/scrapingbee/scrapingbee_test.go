package scrapingbee

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pincrawl/internal/config"
	"pincrawl/pkg/utils"
)

func newTestScraper(t *testing.T, handler http.HandlerFunc) *Scraper {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.Scraper.Timeout = 5 * time.Second
	cfg.ScrapingBee.APIKey = "test-key"
	cfg.ScrapingBee.APIURL = server.URL
	cfg.ScrapingBee.RenderJS = true

	scraper, err := NewScraper(cfg)
	require.NoError(t, err)
	return scraper
}

func TestScrapePassesTargetThroughAPI(t *testing.T) {
	var gotQuery map[string]string

	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"api_key":   r.URL.Query().Get("api_key"),
			"url":       r.URL.Query().Get("url"),
			"render_js": r.URL.Query().Get("render_js"),
		}
		w.Write([]byte(`<html><body><h1>Flipper Godzilla</h1><p>Tres bon etat</p></body></html>`))
	})

	result, err := scraper.Scrape(context.Background(), "https://www.leboncoin.fr/ad/flipper/123")
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotQuery["api_key"])
	assert.Equal(t, "https://www.leboncoin.fr/ad/flipper/123", gotQuery["url"])
	assert.Equal(t, "true", gotQuery["render_js"])

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Contains(t, result.Markdown, "# Flipper Godzilla")
	assert.Contains(t, result.Markdown, "Tres bon etat")
}

func TestLinksExtractsAnchorsFromSearchPage(t *testing.T) {
	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/ad/flipper/1">one</a>
			<a href="/ad/flipper/2">two</a>
		</body></html>`))
	})

	result, err := scraper.Links(context.Background(), "https://www.leboncoin.fr/recherche?text=flipper")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.leboncoin.fr/ad/flipper/1",
		"https://www.leboncoin.fr/ad/flipper/2",
	}, result.Links)
}

func TestScrapeEmptyPageIsRetryable(t *testing.T) {
	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body></body></html>`))
	})

	_, err := scraper.Scrape(context.Background(), "https://www.leboncoin.fr/ad/flipper/123")
	require.Error(t, err)

	var pe *utils.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, utils.RetryNow, pe.Class)
}

func TestScrapeStatusClassification(t *testing.T) {
	cases := []struct {
		status   int
		expected utils.RetryClass
	}{
		{401, utils.RetryNow},
		{402, utils.RetryLater},
		{404, utils.Unrecoverable},
		{429, utils.RetryLater},
		{500, utils.RetryNow},
	}

	for _, tc := range cases {
		scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})

		_, err := scraper.Scrape(context.Background(), "https://www.leboncoin.fr/ad/flipper/123")
		require.Error(t, err)

		var pe *utils.ProviderError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, tc.expected, pe.Class, "status %d", tc.status)
		assert.Equal(t, tc.status, pe.StatusCode)
	}
}

func TestIsHealthyRequiresAPIKey(t *testing.T) {
	cfg := &config.Config{}
	scraper, err := NewScraper(cfg)
	require.NoError(t, err)
	assert.False(t, scraper.IsHealthy())

	cfg.ScrapingBee.APIKey = "test-key"
	assert.True(t, scraper.IsHealthy())
}
