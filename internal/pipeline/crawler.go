// Package pipeline orchestrates the three ad-processing stages: crawl
// discovers ad URLs from search pages, scrape fetches their content, identify
// extracts listing data and resolves the machine against the catalog. Each
// stage is idempotent and safe to re-run; a crashed run leaves ads where they
// were and the next run picks them up.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"pincrawl/internal/config"
	"pincrawl/internal/logging"
	"pincrawl/internal/scraper"
	"pincrawl/internal/storage"
	"pincrawl/pkg/models"
	"pincrawl/pkg/utils"
)

// ErrTooManyFailures aborts a run once the per-run failure budget is spent.
// Budget exhaustion means something systemic (provider outage, bad credentials)
// rather than a string of individually broken ads.
var ErrTooManyFailures = errors.New("pipeline: too many failures, aborting run")

// Extractor pulls structured listing data out of raw ad content.
type Extractor interface {
	ExtractAd(ctx context.Context, content, url string) (*models.Extraction, error)
}

// ProductMatcher resolves a product guess to a catalog match, or nil when no
// catalog entry is close enough.
type ProductMatcher interface {
	Match(ctx context.Context, guess *models.ProductGuess) (*models.Match, error)
}

// Crawler runs the pipeline stages against the store.
type Crawler struct {
	config    *config.Config
	store     storage.Store
	scraper   scraper.Scraper
	extractor Extractor
	matcher   ProductMatcher
	limiter   *rate.Limiter
	adURL     *regexp.Regexp
	logger    logging.Logger
}

// New builds a Crawler. The scraper, extractor and matcher may be nil for
// stages that do not use them.
func New(cfg *config.Config, store storage.Store, sc scraper.Scraper, extractor Extractor, matcher ProductMatcher) (*Crawler, error) {
	adURL, err := regexp.Compile(cfg.Crawler.AdURLPattern)
	if err != nil {
		return nil, utils.NewConfigurationError(fmt.Sprintf("invalid ad_url_pattern: %v", err))
	}

	limit := rate.Inf
	if cfg.Scraper.RateLimit > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.Scraper.RateLimit))
	}

	return &Crawler{
		config:    cfg,
		store:     store,
		scraper:   sc,
		extractor: extractor,
		matcher:   matcher,
		limiter:   rate.NewLimiter(limit, 1),
		adURL:     adURL,
		logger:    logging.GetGlobalLogger(),
	}, nil
}

// Crawl fetches every configured search query, filters the discovered links
// down to ad URLs and registers the new ones in stage "new". A failing query
// does not stop the others; the run errors only if every query failed.
// A limit of 0 registers everything discovered.
func (c *Crawler) Crawl(ctx context.Context, limit int) (*models.RunSummary, error) {
	summary := c.newSummary("crawl")
	defer summary.finish()

	seen := make(map[string]bool)
	failedQueries := 0

	for _, query := range c.config.Crawler.Queries {
		links, err := c.fetchLinks(ctx, query)
		if err != nil {
			failedQueries++
			summary.Failed++
			c.logger.Error("Search query failed", map[string]interface{}{
				"run_id": summary.RunID,
				"query":  query,
				"error":  err.Error(),
			})
			continue
		}

		for _, link := range links {
			if limit > 0 && summary.Discovered >= limit {
				break
			}
			if !c.adURL.MatchString(link) || seen[link] {
				continue
			}
			seen[link] = true

			exists, err := c.store.AdExists(ctx, link)
			if err != nil {
				return summary.RunSummary, err
			}
			if exists {
				summary.Skipped++
				continue
			}

			if _, err := c.store.CreateAd(ctx, link); err != nil {
				if errors.Is(err, storage.ErrDuplicateURL) {
					summary.Skipped++
					continue
				}
				return summary.RunSummary, err
			}
			summary.Discovered++
		}

		if limit > 0 && summary.Discovered >= limit {
			break
		}
	}

	if len(c.config.Crawler.Queries) > 0 && failedQueries == len(c.config.Crawler.Queries) {
		return summary.RunSummary, fmt.Errorf("all %d search queries failed", failedQueries)
	}

	c.logger.Info("Crawl finished", map[string]interface{}{
		"run_id":     summary.RunID,
		"discovered": summary.Discovered,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
	})

	return summary.RunSummary, nil
}

func (c *Crawler) fetchLinks(ctx context.Context, searchURL string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Pipeline.CallTimeout)
	defer cancel()

	result, err := c.scraper.Links(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	return result.Links, nil
}

// Scrape fetches content for ads in stage "new", oldest first. Failures are
// isolated per ad; the run aborts only when the failure budget is spent.
func (c *Crawler) Scrape(ctx context.Context, limit int) (*models.RunSummary, error) {
	summary := c.newSummary("scrape")
	defer summary.finish()

	ads, err := c.store.ListAdsByStage(ctx, models.StageNew, limit)
	if err != nil {
		return summary.RunSummary, err
	}

	for i := range ads {
		ad := &ads[i]

		if err := c.scrapeAd(ctx, ad); err != nil {
			if aborted, abortErr := c.recordFailure(ctx, ad, summary, err); aborted {
				return summary.RunSummary, abortErr
			}
			continue
		}
		summary.Scraped++
	}

	c.logger.Info("Scrape finished", map[string]interface{}{
		"run_id":  summary.RunID,
		"scraped": summary.Scraped,
		"ignored": summary.Ignored,
		"failed":  summary.Failed,
	})

	return summary.RunSummary, nil
}

func (c *Crawler) scrapeAd(ctx context.Context, ad *models.Ad) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Pipeline.CallTimeout)
	defer cancel()

	result, err := c.scraper.Scrape(callCtx, ad.URL)
	if err != nil {
		return err
	}

	if err := c.store.MarkAdScraped(ctx, ad.ID, result.Markdown, result.ScrapeID); err != nil {
		if errors.Is(err, storage.ErrStageConflict) {
			// Another run already advanced this ad.
			return nil
		}
		return err
	}
	return nil
}

// Identify extracts listing data from ads in stage "scraped" and resolves
// each against the catalog. An ad that is not a recognizable machine is
// ignored, not failed: that is a normal outcome for parts and toy listings.
func (c *Crawler) Identify(ctx context.Context, limit int) (*models.RunSummary, error) {
	summary := c.newSummary("identify")
	defer summary.finish()

	ads, err := c.store.ListAdsByStage(ctx, models.StageScraped, limit)
	if err != nil {
		return summary.RunSummary, err
	}

	for i := range ads {
		ad := &ads[i]

		identified, err := c.identifyAd(ctx, ad)
		if err != nil {
			if aborted, abortErr := c.recordFailure(ctx, ad, summary, err); aborted {
				return summary.RunSummary, abortErr
			}
			continue
		}

		if identified {
			summary.Identified++
		} else {
			summary.Ignored++
		}
	}

	c.logger.Info("Identify finished", map[string]interface{}{
		"run_id":     summary.RunID,
		"identified": summary.Identified,
		"ignored":    summary.Ignored,
		"failed":     summary.Failed,
	})

	return summary.RunSummary, nil
}

// identifyAd returns true when the ad was matched to a catalog product and
// false when it was ignored.
func (c *Crawler) identifyAd(ctx context.Context, ad *models.Ad) (bool, error) {
	if ad.Content == nil || *ad.Content == "" {
		return false, c.ignoreAd(ctx, ad, "no content")
	}

	extraction, err := c.extractor.ExtractAd(ctx, *ad.Content, ad.URL)
	if err != nil {
		return false, err
	}

	if err := c.store.SaveExtraction(ctx, ad.ID, &extraction.Info, extraction.Product); err != nil {
		return false, err
	}

	if extraction.Product == nil {
		return false, c.ignoreAd(ctx, ad, "no machine in ad")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Pipeline.CallTimeout)
	match, err := c.matcher.Match(callCtx, extraction.Product)
	cancel()
	if err != nil {
		return false, err
	}

	if match == nil {
		return false, c.ignoreAd(ctx, ad, "no catalog match")
	}

	// The index stores OPDB IDs, but the relational catalog is authoritative.
	product, err := c.store.GetProductByOpdbID(ctx, match.OpdbID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, fmt.Errorf("matched product %s missing from catalog (index out of date?)", match.OpdbID)
		}
		return false, err
	}

	if err := c.store.MarkAdIdentified(ctx, ad.ID, product); err != nil {
		return false, err
	}

	c.logger.Info("Ad identified", map[string]interface{}{
		"ad_id":   ad.ID,
		"opdb_id": product.OpdbID,
		"product": product.Name,
		"score":   match.Score,
	})

	return true, nil
}

func (c *Crawler) ignoreAd(ctx context.Context, ad *models.Ad, reason string) error {
	if err := c.store.MarkAdIgnored(ctx, ad.ID); err != nil {
		return err
	}
	c.logger.Info("Ad ignored", map[string]interface{}{
		"ad_id":  ad.ID,
		"url":    ad.URL,
		"reason": reason,
	})
	return nil
}

// recordFailure handles one failed ad: it bumps the attempt counter, retires
// ads that are unrecoverable or out of attempts, and reports whether the
// per-run failure budget is spent.
func (c *Crawler) recordFailure(ctx context.Context, ad *models.Ad, summary *runSummary, cause error) (aborted bool, err error) {
	summary.Failed++

	c.logger.Error("Ad processing failed", map[string]interface{}{
		"run_id": summary.RunID,
		"ad_id":  ad.ID,
		"url":    ad.URL,
		"error":  cause.Error(),
	})

	attempts, recordErr := c.store.RecordAdFailure(ctx, ad.ID)
	if recordErr != nil {
		return true, recordErr
	}

	if utils.IsUnrecoverable(cause) {
		if ignoreErr := c.ignoreAd(ctx, ad, "unrecoverable error"); ignoreErr != nil {
			return true, ignoreErr
		}
		summary.Ignored++
	} else if c.config.Pipeline.MaxAttempts > 0 && attempts >= c.config.Pipeline.MaxAttempts {
		if ignoreErr := c.ignoreAd(ctx, ad, "attempt limit reached"); ignoreErr != nil {
			return true, ignoreErr
		}
		summary.Ignored++
	}

	if c.config.Pipeline.MaxFailures > 0 && summary.Failed >= c.config.Pipeline.MaxFailures {
		return true, fmt.Errorf("%w (%d failures)", ErrTooManyFailures, summary.Failed)
	}

	return false, nil
}

type runSummary struct {
	*models.RunSummary
}

func (c *Crawler) newSummary(stage string) *runSummary {
	return &runSummary{
		RunSummary: &models.RunSummary{
			RunID:     uuid.New().String(),
			Stage:     stage,
			StartedAt: time.Now().UTC(),
		},
	}
}

func (s *runSummary) finish() {
	s.Duration = time.Since(s.StartedAt)
}
