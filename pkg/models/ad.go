package models

import "time"

// Stage represents the lifecycle stage of an ad in the pipeline.
// Transitions: new -> scraped -> identified | ignored.
type Stage string

const (
	StageNew        Stage = "new"
	StageScraped    Stage = "scraped"
	StageIdentified Stage = "identified"
	StageIgnored    Stage = "ignored"
)

// Ad represents one discovered marketplace listing tracked through the
// crawl/scrape/identify stages. The URL is the natural idempotency key.
type Ad struct {
	ID           int64      `db:"id" json:"id"`
	URL          string     `db:"url" json:"url"`
	Stage        Stage      `db:"stage" json:"stage"`
	Ignored      bool       `db:"ignored" json:"ignored"`
	Attempts     int        `db:"attempts" json:"attempts"`
	Content      *string    `db:"content" json:"content,omitempty"`
	ScrapeID     *string    `db:"scrape_id" json:"scrape_id,omitempty"`
	Title        *string    `db:"title" json:"title,omitempty"`
	Description  *string    `db:"description" json:"description,omitempty"`
	Amount       *int       `db:"amount" json:"amount,omitempty"`
	Currency     *string    `db:"currency" json:"currency,omitempty"`
	City         *string    `db:"city" json:"city,omitempty"`
	Zipcode      *string    `db:"zipcode" json:"zipcode,omitempty"`
	Seller       *string    `db:"seller" json:"seller,omitempty"`
	SellerURL    *string    `db:"seller_url" json:"seller_url,omitempty"`
	Product      *string    `db:"product" json:"product,omitempty"`
	Manufacturer *string    `db:"manufacturer" json:"manufacturer,omitempty"`
	Year         *string    `db:"year" json:"year,omitempty"`
	OpdbID       *string    `db:"opdb_id" json:"opdb_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ScrapedAt    *time.Time `db:"scraped_at" json:"scraped_at,omitempty"`
	IdentifiedAt *time.Time `db:"identified_at" json:"identified_at,omitempty"`
}

// AdInfo is the structured information extracted from raw ad content by the
// LLM extractor. All fields except Title may be absent from the ad text.
type AdInfo struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Amount      *int    `json:"amount"`
	Currency    string  `json:"currency"`
	City        *string `json:"city"`
	Zipcode     *string `json:"zipcode"`
	Seller      *string `json:"seller"`
	SellerURL   *string `json:"seller_url"`
}

// ProductGuess is the extractor's free-text identification of the machine
// being sold. It is a noisy guess, not a catalog reference; the matcher
// resolves it against the canonical catalog.
type ProductGuess struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Year         *int   `json:"year"`
}

// Extraction bundles the extractor output for one ad. Product is nil when the
// model could not identify a machine in the ad at all.
type Extraction struct {
	Info    AdInfo        `json:"info"`
	Product *ProductGuess `json:"product"`
}
