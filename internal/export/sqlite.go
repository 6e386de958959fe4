package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/raine/places-collector/internal/collector"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const createResultsTable = `
CREATE TABLE results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	place_id TEXT NOT NULL,
	municipio TEXT NOT NULL,
	nome TEXT NOT NULL,
	endereco TEXT NOT NULL,
	rating REAL,
	categoria TEXT NOT NULL,
	telefone TEXT NOT NULL,
	site TEXT NOT NULL,
	link_google_maps TEXT NOT NULL
);
`

const insertResult = `
INSERT INTO results (run_id, place_id, municipio, nome, endereco, rating, categoria, telefone, site, link_google_maps)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// WriteSQLite writes rs into a new SQLite database at path. An existing file
// at path is replaced.
func WriteSQLite(ctx context.Context, path string, rs *collector.ResultSet) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createResultsTable); err != nil {
		return fmt.Errorf("failed to create results table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertResult)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rs.Rows {
		var rating sql.NullFloat64
		if row.Rating != nil {
			rating = sql.NullFloat64{Float64: *row.Rating, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			rs.RunID,
			row.PlaceID,
			row.Municipality,
			row.Name,
			row.Address,
			rating,
			row.CategoryLabel,
			row.Phone,
			row.Website,
			row.MapLink(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s: %w", row.PlaceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}

	log.Debug().Str("path", path).Int("rows", len(rs.Rows)).Msg("wrote sqlite export")
	return nil
}
