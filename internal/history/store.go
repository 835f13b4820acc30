// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists conversion outcomes in a SQLite database. It
// backs incremental batches (skip inputs unchanged since their last
// successful conversion) and the history list/export commands.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/sheetpress/pkg/types"
)

// DefaultPath is the history database location used when the CLI enables
// history without naming a file.
const DefaultPath = ".sheetpress/history.db"

const defaultLimit = 50

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating its parent
// directory and schema when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			input_path TEXT NOT NULL,
			output_path TEXT NOT NULL,
			title TEXT,
			blocks INTEGER,
			dropped INTEGER,
			status TEXT NOT NULL,
			input_mod_time TEXT,
			converted_at TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_input ON conversions(input_path)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_status ON conversions(status)`,
		`CREATE TABLE IF NOT EXISTS sheets (
			input_path TEXT PRIMARY KEY,
			output_path TEXT NOT NULL,
			input_mod_time TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Record appends rec to the conversion log. A successful conversion also
// becomes the reference point for Unchanged.
func (s *Store) Record(ctx context.Context, rec types.ConversionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversions (input_path, output_path, title, blocks, dropped, status, input_mod_time, converted_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.InputPath, rec.OutputPath, rec.Title, rec.Blocks, rec.Dropped,
		string(rec.Status), formatTime(rec.InputModTime), formatTime(rec.ConvertedAt), rec.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting conversion: %w", err)
	}

	if rec.Status == types.ConversionDone {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sheets (input_path, output_path, input_mod_time) VALUES (?, ?, ?)
			 ON CONFLICT(input_path) DO UPDATE SET
				output_path=excluded.output_path, input_mod_time=excluded.input_mod_time`,
			rec.InputPath, rec.OutputPath, formatTime(rec.InputModTime),
		)
		if err != nil {
			return fmt.Errorf("updating sheet status: %w", err)
		}
	}

	return tx.Commit()
}

// Unchanged reports whether input was last converted successfully to output
// with the same modification time, and output still exists.
func (s *Store) Unchanged(ctx context.Context, input, output string, modTime time.Time) (bool, error) {
	var storedOutput, storedModTime string
	err := s.db.QueryRowContext(ctx,
		`SELECT output_path, input_mod_time FROM sheets WHERE input_path = ?`, input,
	).Scan(&storedOutput, &storedModTime)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying sheet status: %w", err)
	}

	if storedOutput != output || storedModTime != formatTime(modTime) {
		return false, nil
	}
	if _, err := os.Stat(output); err != nil {
		return false, nil
	}
	return true, nil
}

// QueryOptions filters List.
type QueryOptions struct {
	// Status keeps only records with this status.
	Status types.ConversionStatus

	// Input keeps only records for this input path.
	Input string

	// Limit caps the number of records. Zero uses the default (50);
	// negative returns everything.
	Limit int
}

// List returns recorded conversions, newest first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]types.ConversionRecord, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT input_path, output_path, title, blocks, dropped, status,
			input_mod_time, converted_at, error
		FROM conversions WHERE 1=1`)

	if opts.Status != "" {
		qb.WriteString(` AND status = ?`)
		args = append(args, string(opts.Status))
	}
	if opts.Input != "" {
		qb.WriteString(` AND input_path = ?`)
		args = append(args, opts.Input)
	}
	qb.WriteString(` ORDER BY id DESC`)

	limit := opts.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var records []types.ConversionRecord
	for rows.Next() {
		var (
			rec                  types.ConversionRecord
			status               string
			modTime, convertedAt string
			title, errMsg        sql.NullString
			blocks, dropped      sql.NullInt64
		)
		if err := rows.Scan(&rec.InputPath, &rec.OutputPath, &title, &blocks, &dropped,
			&status, &modTime, &convertedAt, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		rec.Title = title.String
		rec.Blocks = int(blocks.Int64)
		rec.Dropped = int(dropped.Int64)
		rec.Status = types.ConversionStatus(status)
		rec.InputModTime = parseTime(modTime)
		rec.ConvertedAt = parseTime(convertedAt)
		rec.Error = errMsg.String
		records = append(records, rec)
	}
	return records, rows.Err()
}
