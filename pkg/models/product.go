package models

import "time"

// Product is a canonical catalog entry for a real-world pinball machine.
// The pipeline only reads products; catalog population is an offline concern.
type Product struct {
	ID           int64     `db:"id" json:"id"`
	OpdbID       string    `db:"opdb_id" json:"opdb_id"`
	IpdbID       *int      `db:"ipdb_id" json:"ipdb_id,omitempty"`
	Name         string    `db:"name" json:"name"`
	Shortname    *string   `db:"shortname" json:"shortname,omitempty"`
	Manufacturer string    `db:"manufacturer" json:"manufacturer"`
	Type         *string   `db:"type" json:"type,omitempty"`
	Year         *string   `db:"year" json:"year,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Match is a nearest-neighbor candidate returned by the vector index.
type Match struct {
	OpdbID       string  `json:"opdb_id"`
	Name         string  `json:"name"`
	Manufacturer string  `json:"manufacturer"`
	Year         string  `json:"year,omitempty"`
	Score        float32 `json:"score"`
}
