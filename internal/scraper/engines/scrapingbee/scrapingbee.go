package scrapingbee

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"pincrawl/internal/config"
	"pincrawl/internal/logging"
	"pincrawl/pkg/models"
	"pincrawl/pkg/utils"
)

// Scraper implements the scraper interface using the ScrapingBee API
type Scraper struct {
	config     *config.Config
	httpClient *http.Client
	logger     logging.Logger
}

// NewScraper creates a new ScrapingBee scraper instance
func NewScraper(cfg *config.Config) (*Scraper, error) {
	logger := logging.GetGlobalLogger()

	httpClient := &http.Client{
		Timeout: cfg.Scraper.Timeout,
	}

	logger.Info("ScrapingBee scraper initialized", map[string]interface{}{
		"api_url":   cfg.ScrapingBee.APIURL,
		"render_js": cfg.ScrapingBee.RenderJS,
	})

	return &Scraper{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Links fetches a search results page and extracts the links found in its HTML
func (s *Scraper) Links(ctx context.Context, searchURL string) (*models.LinksResult, error) {
	html, statusCode, err := s.fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	links, err := ExtractLinks(html, baseURL(searchURL))
	if err != nil {
		return nil, utils.NewProviderStatusError("scrapingbee", "links", utils.RetryNow, statusCode,
			fmt.Errorf("failed to parse HTML: %w", err))
	}

	return &models.LinksResult{
		Links:       links,
		StatusCode:  statusCode,
		CreditsUsed: 1,
	}, nil
}

// Scrape fetches a single ad page and returns its content normalized to markdown
func (s *Scraper) Scrape(ctx context.Context, adURL string) (*models.ScrapeResult, error) {
	html, statusCode, err := s.fetch(ctx, adURL)
	if err != nil {
		return nil, err
	}

	markdown, err := HTMLToMarkdown(html)
	if err != nil {
		return nil, utils.NewProviderStatusError("scrapingbee", "scrape", utils.RetryNow, statusCode,
			fmt.Errorf("failed to parse HTML: %w", err))
	}

	if markdown == "" {
		// A blank page usually means a CAPTCHA wall or a blocked fetch, not an
		// ad without content.
		return nil, utils.NewProviderStatusError("scrapingbee", "scrape", utils.RetryNow, statusCode,
			fmt.Errorf("empty content in response"))
	}

	return &models.ScrapeResult{
		Markdown:    markdown,
		StatusCode:  statusCode,
		CreditsUsed: 1,
	}, nil
}

// fetch performs one ScrapingBee API call and classifies failures
func (s *Scraper) fetch(ctx context.Context, target string) (string, int, error) {
	params := url.Values{}
	params.Set("api_key", s.config.ScrapingBee.APIKey)
	params.Set("url", target)
	params.Set("render_js", strconv.FormatBool(s.config.ScrapingBee.RenderJS))

	apiURL := s.config.ScrapingBee.APIURL + "/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", 0, utils.NewProviderError("scrapingbee", "fetch", utils.Unrecoverable, err)
	}

	s.logger.Debug("ScrapingBee fetch", map[string]interface{}{
		"url": target,
	})

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Transport failures and timeouts are worth retrying
		return "", 0, utils.NewProviderError("scrapingbee", "fetch", utils.RetryNow, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, utils.NewProviderError("scrapingbee", "fetch", utils.RetryNow, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, utils.NewProviderStatusError("scrapingbee", "fetch",
			classifyStatus(resp.StatusCode), resp.StatusCode,
			fmt.Errorf("scrapingbee returned status %d", resp.StatusCode))
	}

	return string(body), resp.StatusCode, nil
}

// Name returns the backend identifier
func (s *Scraper) Name() string {
	return "scrapingbee"
}

// IsHealthy returns true if the backend is configured and ready
func (s *Scraper) IsHealthy() bool {
	return s.config.ScrapingBee.APIKey != ""
}

// Cleanup releases any resources used by the backend
func (s *Scraper) Cleanup() {
	if s.httpClient != nil {
		s.httpClient.CloseIdleConnections()
	}
}

// classifyStatus maps a ScrapingBee HTTP status onto a retry class
func classifyStatus(code int) utils.RetryClass {
	switch {
	case code == 401 || code == 403 || code == 500:
		return utils.RetryNow
	case code == 402 || code == 429:
		return utils.RetryLater
	case code >= 400:
		return utils.Unrecoverable
	default:
		return utils.RetryNow
	}
}

func baseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
