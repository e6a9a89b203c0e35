package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"pincrawl/internal/config"
	"pincrawl/migrations"
	"pincrawl/pkg/models"
)

// SQLStore implements Store on top of sqlx for both supported drivers.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// New opens the configured database, applies pending migrations and returns a
// ready store.
func New(cfg *config.Config) (*SQLStore, error) {
	db, err := sqlx.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		// modernc's driver is not safe for concurrent writes on one file.
		db.SetMaxOpenConns(1)
	}

	if err := migrations.Run(db.DB, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLStore{db: db, driver: cfg.Database.Driver}, nil
}

// Close releases the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) rebind(query string) string {
	return s.db.Rebind(query)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateAd inserts a new ad in stage "new".
func (s *SQLStore) CreateAd(ctx context.Context, url string) (*models.Ad, error) {
	now := time.Now().UTC()

	query := s.rebind(`INSERT INTO ads (url, stage, created_at) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, url, models.StageNew, now); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateURL
		}
		return nil, fmt.Errorf("insert ad: %w", err)
	}

	return s.GetAdByURL(ctx, url)
}

// AdExists reports whether an ad with the given URL is already stored.
func (s *SQLStore) AdExists(ctx context.Context, url string) (bool, error) {
	var count int
	query := s.rebind(`SELECT COUNT(*) FROM ads WHERE url = ?`)
	if err := s.db.GetContext(ctx, &count, query, url); err != nil {
		return false, fmt.Errorf("check ad exists: %w", err)
	}
	return count > 0, nil
}

// GetAdByURL fetches a single ad by URL.
func (s *SQLStore) GetAdByURL(ctx context.Context, url string) (*models.Ad, error) {
	var ad models.Ad
	query := s.rebind(`SELECT * FROM ads WHERE url = ?`)
	if err := s.db.GetContext(ctx, &ad, query, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ad: %w", err)
	}
	return &ad, nil
}

// ListAdsByStage returns ads in the given stage, oldest first. Retired ads
// never appear in the work queues because ignoring moves them to stage
// "ignored".
func (s *SQLStore) ListAdsByStage(ctx context.Context, stage models.Stage, limit int) ([]models.Ad, error) {
	query := `SELECT * FROM ads WHERE stage = ? ORDER BY created_at ASC, id ASC`
	args := []interface{}{stage}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	ads := []models.Ad{}
	if err := s.db.SelectContext(ctx, &ads, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}
	return ads, nil
}

// MarkAdScraped moves an ad from "new" to "scraped" and stores its content.
func (s *SQLStore) MarkAdScraped(ctx context.Context, id int64, content, scrapeID string) error {
	now := time.Now().UTC()

	query := s.rebind(`UPDATE ads SET stage = ?, content = ?, scrape_id = ?, scraped_at = ? WHERE id = ? AND stage = ?`)
	res, err := s.db.ExecContext(ctx, query, models.StageScraped, content, scrapeID, now, id, models.StageNew)
	if err != nil {
		return fmt.Errorf("mark ad scraped: %w", err)
	}
	return s.requireOneRow(res)
}

// SaveExtraction stores the listing fields pulled out of the ad content, plus
// the extractor's free-text product guess when present.
func (s *SQLStore) SaveExtraction(ctx context.Context, id int64, info *models.AdInfo, guess *models.ProductGuess) error {
	var product, manufacturer, year *string
	if guess != nil {
		product = &guess.Name
		if guess.Manufacturer != "" {
			manufacturer = &guess.Manufacturer
		}
		if guess.Year != nil {
			y := fmt.Sprintf("%d", *guess.Year)
			year = &y
		}
	}

	query := s.rebind(`UPDATE ads SET
		title = ?, description = ?, amount = ?, currency = ?,
		city = ?, zipcode = ?, seller = ?, seller_url = ?,
		product = ?, manufacturer = ?, year = ?
		WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query,
		info.Title, info.Description, info.Amount, info.Currency,
		info.City, info.Zipcode, info.Seller, info.SellerURL,
		product, manufacturer, year, id)
	if err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	return s.requireOneRow(res)
}

// MarkAdIdentified moves an ad from "scraped" to "identified" and records the
// matched catalog product. The catalog is authoritative, so its name,
// manufacturer and year overwrite whatever the extractor guessed.
func (s *SQLStore) MarkAdIdentified(ctx context.Context, id int64, product *models.Product) error {
	now := time.Now().UTC()

	query := s.rebind(`UPDATE ads SET
		stage = ?, opdb_id = ?, product = ?, manufacturer = ?, year = ?, identified_at = ?
		WHERE id = ? AND stage = ?`)
	res, err := s.db.ExecContext(ctx, query,
		models.StageIdentified, product.OpdbID, product.Name, product.Manufacturer, product.Year,
		now, id, models.StageScraped)
	if err != nil {
		return fmt.Errorf("mark ad identified: %w", err)
	}
	return s.requireOneRow(res)
}

// MarkAdIgnored flags an ad as ignored. Valid from stages "new" and "scraped".
func (s *SQLStore) MarkAdIgnored(ctx context.Context, id int64) error {
	now := time.Now().UTC()

	query := s.rebind(`UPDATE ads SET stage = ?, ignored = ?, identified_at = ? WHERE id = ? AND stage IN (?, ?)`)
	res, err := s.db.ExecContext(ctx, query, models.StageIgnored, true, now, id, models.StageNew, models.StageScraped)
	if err != nil {
		return fmt.Errorf("mark ad ignored: %w", err)
	}
	return s.requireOneRow(res)
}

// RecordAdFailure increments the ad's attempt counter and returns the new count.
func (s *SQLStore) RecordAdFailure(ctx context.Context, id int64) (int, error) {
	query := s.rebind(`UPDATE ads SET attempts = attempts + 1 WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return 0, fmt.Errorf("record ad failure: %w", err)
	}

	var attempts int
	if err := s.db.GetContext(ctx, &attempts, s.rebind(`SELECT attempts FROM ads WHERE id = ?`), id); err != nil {
		return 0, fmt.Errorf("read ad attempts: %w", err)
	}
	return attempts, nil
}

func (s *SQLStore) requireOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStageConflict
	}
	return nil
}

// UpsertProduct inserts or refreshes a catalog entry keyed by OPDB ID.
func (s *SQLStore) UpsertProduct(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()

	query := s.rebind(`INSERT INTO products (opdb_id, ipdb_id, name, shortname, manufacturer, type, year, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (opdb_id) DO UPDATE SET
			ipdb_id = excluded.ipdb_id,
			name = excluded.name,
			shortname = excluded.shortname,
			manufacturer = excluded.manufacturer,
			type = excluded.type,
			year = excluded.year`)
	_, err := s.db.ExecContext(ctx, query,
		product.OpdbID, product.IpdbID, product.Name, product.Shortname,
		product.Manufacturer, product.Type, product.Year, now)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// GetProductByOpdbID fetches a catalog entry.
func (s *SQLStore) GetProductByOpdbID(ctx context.Context, opdbID string) (*models.Product, error) {
	var product models.Product
	query := s.rebind(`SELECT * FROM products WHERE opdb_id = ?`)
	if err := s.db.GetContext(ctx, &product, query, opdbID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &product, nil
}

// ListProducts returns all catalog entries ordered by name.
func (s *SQLStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, `SELECT * FROM products ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// CountProducts returns the number of catalog entries.
func (s *SQLStore) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// DeleteAllProducts empties the catalog.
func (s *SQLStore) DeleteAllProducts(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("delete products: %w", err)
	}
	return nil
}
