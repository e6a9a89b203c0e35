package firecrawl

import (
	"context"
	"fmt"
	"strings"

	"github.com/mendableai/firecrawl-go"

	"pincrawl/internal/config"
	"pincrawl/internal/logging"
	"pincrawl/pkg/models"
	"pincrawl/pkg/utils"
)

// Scraper implements the scraper interface using the Firecrawl API
type Scraper struct {
	config *config.Config
	app    *firecrawl.FirecrawlApp
	logger logging.Logger
}

// NewScraper creates a new Firecrawl scraper instance
func NewScraper(cfg *config.Config) (*Scraper, error) {
	logger := logging.GetGlobalLogger()

	app, err := firecrawl.NewFirecrawlApp(
		cfg.Firecrawl.APIKey,
		cfg.Firecrawl.APIURL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firecrawl: %w", err)
	}

	logger.Info("Firecrawl scraper initialized", map[string]interface{}{
		"api_url": cfg.Firecrawl.APIURL,
	})

	return &Scraper{
		config: cfg,
		app:    app,
		logger: logger,
	}, nil
}

// Links fetches a search results page and returns the links found on it
func (s *Scraper) Links(ctx context.Context, searchURL string) (*models.LinksResult, error) {
	doc, err := s.scrape(ctx, searchURL, []string{"links"})
	if err != nil {
		return nil, err
	}

	return &models.LinksResult{
		Links:       dedupeLinks(doc.Links),
		StatusCode:  statusCode(doc),
		CreditsUsed: 1,
	}, nil
}

// Scrape fetches a single ad page and returns its content as markdown
func (s *Scraper) Scrape(ctx context.Context, url string) (*models.ScrapeResult, error) {
	doc, err := s.scrape(ctx, url, []string{"markdown"})
	if err != nil {
		return nil, err
	}

	if doc.Markdown == "" {
		return nil, utils.NewProviderStatusError("firecrawl", "scrape", utils.RetryNow,
			statusCode(doc), fmt.Errorf("empty markdown in response"))
	}

	return &models.ScrapeResult{
		Markdown:    doc.Markdown,
		StatusCode:  statusCode(doc),
		CreditsUsed: 1,
	}, nil
}

// scrape performs one Firecrawl API call and classifies failures
func (s *Scraper) scrape(ctx context.Context, url string, formats []string) (*firecrawl.FirecrawlDocument, error) {
	s.logger.Debug("Firecrawl scrape", map[string]interface{}{
		"url":     url,
		"formats": strings.Join(formats, ","),
	})

	doc, err := s.app.ScrapeURL(url, &firecrawl.ScrapeParams{
		Formats: formats,
	})
	if err != nil {
		return nil, utils.NewProviderError("firecrawl", "scrape", classifyError(err), err)
	}

	if doc == nil {
		return nil, utils.NewProviderError("firecrawl", "scrape", utils.RetryNow,
			fmt.Errorf("no document in response"))
	}

	if code := statusCode(doc); code >= 400 {
		return nil, utils.NewProviderStatusError("firecrawl", "scrape", classifyStatus(code), code,
			fmt.Errorf("firecrawl returned status %d", code))
	}

	return doc, nil
}

// Name returns the backend identifier
func (s *Scraper) Name() string {
	return "firecrawl"
}

// IsHealthy returns true if the backend is configured and ready
func (s *Scraper) IsHealthy() bool {
	return s.app != nil && s.config.Firecrawl.APIKey != ""
}

// Cleanup releases any resources used by the backend
func (s *Scraper) Cleanup() {
	// Firecrawl SDK doesn't require explicit cleanup
}

func statusCode(doc *firecrawl.FirecrawlDocument) int {
	if doc.Metadata == nil || doc.Metadata.StatusCode == nil {
		return 0
	}
	return *doc.Metadata.StatusCode
}

// classifyStatus maps an upstream HTTP status onto a retry class. Blocked or
// transiently failing fetches are worth retrying; other client errors are not.
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

// classifyError maps an SDK transport error onto a retry class
func classifyError(err error) utils.RetryClass {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") ||
		strings.Contains(msg, "payment") || strings.Contains(msg, "402"):
		return utils.RetryLater
	case strings.Contains(msg, "not supported") || strings.Contains(msg, "400"):
		return utils.Unrecoverable
	default:
		return utils.RetryNow
	}
}

func dedupeLinks(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	result := make([]string, 0, len(links))
	for _, link := range links {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		result = append(result, link)
	}
	return result
}
