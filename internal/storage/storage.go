// Package storage persists ads and catalog products behind a small store interface
// backed by either PostgreSQL or SQLite.
package storage

import (
	"context"
	"errors"

	"pincrawl/pkg/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrDuplicateURL is returned when creating an ad whose URL is already stored.
	ErrDuplicateURL = errors.New("storage: duplicate ad url")

	// ErrStageConflict is returned when a stage transition finds the ad in an
	// unexpected stage. Stages only move forward, so a conflict means another
	// run already advanced the ad.
	ErrStageConflict = errors.New("storage: stage conflict")
)

// AdStore manages the ad lifecycle.
type AdStore interface {
	// CreateAd inserts a new ad in stage "new". Returns ErrDuplicateURL if the
	// URL is already known.
	CreateAd(ctx context.Context, url string) (*models.Ad, error)

	// AdExists reports whether an ad with the given URL is already stored.
	AdExists(ctx context.Context, url string) (bool, error)

	// GetAdByURL fetches a single ad by URL.
	GetAdByURL(ctx context.Context, url string) (*models.Ad, error)

	// ListAdsByStage returns ads in the given stage, oldest first. A limit of
	// 0 means no limit.
	ListAdsByStage(ctx context.Context, stage models.Stage, limit int) ([]models.Ad, error)

	// MarkAdScraped moves an ad from "new" to "scraped" and stores the scraped
	// content. Returns ErrStageConflict if the ad is not in stage "new".
	MarkAdScraped(ctx context.Context, id int64, content, scrapeID string) error

	// SaveExtraction stores the listing fields pulled out of the ad content,
	// plus the extractor's free-text product guess when present. It does not
	// change the stage.
	SaveExtraction(ctx context.Context, id int64, info *models.AdInfo, guess *models.ProductGuess) error

	// MarkAdIdentified moves an ad from "scraped" to "identified" and records
	// the matched catalog product. The canonical name, manufacturer and year
	// replace the extractor's guess. Returns ErrStageConflict if the ad is not
	// in stage "scraped".
	MarkAdIdentified(ctx context.Context, id int64, product *models.Product) error

	// MarkAdIgnored flags an ad as ignored and moves it to stage "ignored".
	// Valid from stages "new" and "scraped".
	MarkAdIgnored(ctx context.Context, id int64) error

	// RecordAdFailure increments the ad's attempt counter and returns the new
	// count.
	RecordAdFailure(ctx context.Context, id int64) (int, error)
}

// ProductStore manages the reference catalog of machines.
type ProductStore interface {
	// UpsertProduct inserts or refreshes a catalog entry keyed by OPDB ID.
	UpsertProduct(ctx context.Context, product *models.Product) error

	// GetProductByOpdbID fetches a catalog entry, or ErrNotFound.
	GetProductByOpdbID(ctx context.Context, opdbID string) (*models.Product, error)

	// ListProducts returns all catalog entries ordered by name.
	ListProducts(ctx context.Context) ([]models.Product, error)

	// CountProducts returns the number of catalog entries.
	CountProducts(ctx context.Context) (int, error)

	// DeleteAllProducts empties the catalog.
	DeleteAllProducts(ctx context.Context) error
}

// Store is the full persistence surface used by the pipeline.
type Store interface {
	AdStore
	ProductStore

	// Close releases the underlying database connection.
	Close() error
}
