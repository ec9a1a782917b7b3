// Package duckdb provides a DuckDB-backed sink for annotation records, so a
// run's results can be queried with SQL afterwards.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/rsvep/internal/annotate"
)

// Store manages a DuckDB database holding annotation results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates the annotations table if it doesn't exist.
// Positions are BIGINT and NULL when absent; extra holds the requested
// additional fields as a JSON object, empty when none were requested.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS annotations (
		rsid VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		most_severe_consequence VARCHAR,
		gene_symbols VARCHAR,
		extra VARCHAR
	)`)
	return err
}

// LookupAnnotation returns the stored records for an rsid, in insert order.
func (s *Store) LookupAnnotation(rsid string) ([]*annotate.Annotation, error) {
	rows, err := s.db.Query(`SELECT
		rsid, start_pos, end_pos, most_severe_consequence, gene_symbols, extra
		FROM annotations WHERE rsid = ?`, rsid)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	defer rows.Close()

	var anns []*annotate.Annotation
	for rows.Next() {
		var (
			id, consequence, symbols, extra string
			start, end                      sql.NullInt64
		)
		if err := rows.Scan(&id, &start, &end, &consequence, &symbols, &extra); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}

		ann := &annotate.Annotation{
			RSID:                  id,
			MostSevereConsequence: consequence,
			GeneSymbols:           symbols,
		}
		if start.Valid {
			ann.Start = strconv.FormatInt(start.Int64, 10)
		}
		if end.Valid {
			ann.End = strconv.FormatInt(end.Int64, 10)
		}
		if extra != "" {
			if err := json.UnmarshalFromString(extra, &ann.Extra); err != nil {
				return nil, fmt.Errorf("decode extra fields: %w", err)
			}
		}

		anns = append(anns, ann)
	}

	return anns, rows.Err()
}

// Count returns the number of stored annotation records.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM annotations`).Scan(&n)
	return n, err
}
