// Package migrations embeds SQL migration files and provides a function to apply them.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS contains the embedded SQL migration files, one directory per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Run applies all pending migrations for the given driver to the database.
func Run(db *sql.DB, driver string) error {
	goose.SetBaseFS(FS)

	dialect := driver
	if driver == "sqlite" {
		dialect = "sqlite3"
	}

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, driver); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
