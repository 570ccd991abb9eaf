// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a local SQLite log of CLI conversions: what was
// converted, with which options, how it ended, and which files it wrote.
// The conversion pipeline itself never touches it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdfconv/pkg/types"
)

const (
	defaultLimit = 20
	dbFile       = "history.db"

	// timeLayout is fixed-width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns ~/.local/share/pdfconv/history.db, honoring
// XDG_DATA_HOME.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "pdfconv", dbFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "pdfconv", dbFile), nil
}

// Open opens or creates the history database at cfg.Path (DefaultPath when
// empty) and creates the schema if it does not exist.
func Open(cfg types.HistoryConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
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
			started_at TEXT NOT NULL,
			source TEXT NOT NULL,
			kind TEXT NOT NULL,
			preset TEXT,
			dpi INTEGER,
			encoding TEXT,
			compression INTEGER,
			status TEXT NOT NULL,
			error_kind TEXT,
			error TEXT,
			artifact_count INTEGER NOT NULL,
			bytes INTEGER NOT NULL,
			estimate_min INTEGER,
			estimate_max INTEGER,
			failed_pages TEXT,
			duration_ms INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			conversion_id INTEGER NOT NULL REFERENCES conversions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (conversion_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_started_at ON conversions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_status ON conversions(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Entry is one recorded conversion.
type Entry struct {
	ID          int64                      `json:"id" yaml:"id"`
	StartedAt   time.Time                  `json:"started_at" yaml:"started_at"`
	Source      string                     `json:"source" yaml:"source"`
	Kind        types.OutputKind           `json:"kind" yaml:"kind"`
	Quality     types.QualityConfiguration `json:"quality,omitempty" yaml:"quality,omitempty"`
	Status      types.ConversionStatus     `json:"status" yaml:"status"`
	ErrorKind   string                     `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error       string                     `json:"error,omitempty" yaml:"error,omitempty"`
	Artifacts   int                        `json:"artifacts" yaml:"artifacts"`
	Bytes       int64                      `json:"bytes" yaml:"bytes"`
	Estimate    *types.SizeRange           `json:"estimate,omitempty" yaml:"estimate,omitempty"`
	FailedPages []int                      `json:"failed_pages,omitempty" yaml:"failed_pages,omitempty"`
	Duration    time.Duration              `json:"duration" yaml:"duration"`
}

// Record stores the outcome of one conversion and its artifact paths and
// returns the new entry's ID.
func (s *Store) Record(ctx context.Context, started time.Time, opts types.ConversionOptions, res *types.ConversionResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var errText string
	if res.Err != nil {
		errText = res.Err.Error()
	}
	var estMin, estMax sql.NullInt64
	if res.Estimate != nil {
		estMin = sql.NullInt64{Int64: res.Estimate.Min, Valid: true}
		estMax = sql.NullInt64{Int64: res.Estimate.Max, Valid: true}
	}
	failedJSON, _ := json.Marshal(res.FailedPages())

	var q types.QualityConfiguration
	if opts.Kind == types.OutputImage {
		q = opts.Quality
	}

	out, err := tx.ExecContext(ctx,
		`INSERT INTO conversions (started_at, source, kind, preset, dpi, encoding, compression,
			status, error_kind, error, artifact_count, bytes, estimate_min, estimate_max,
			failed_pages, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		started.UTC().Format(timeLayout), res.Source, string(opts.Kind),
		string(q.Preset), q.DPI, string(q.Encoding), q.Compression,
		string(res.Status), types.ErrorKind(res.Err), errText,
		len(res.Artifacts), res.ActualBytes, estMin, estMax,
		string(failedJSON), res.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting conversion: %w", err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading conversion id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO artifacts (conversion_id, seq, path) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range res.Artifacts {
		if _, err := stmt.ExecContext(ctx, id, i+1, p); err != nil {
			return 0, fmt.Errorf("inserting artifact %s: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return id, nil
}

// QueryOptions filters Recent.
type QueryOptions struct {
	// Source matches entries whose source path contains this substring.
	Source string

	// Status restricts entries to one outcome.
	Status types.ConversionStatus

	// Limit caps the result count. Zero means 20.
	Limit int
}

// Recent returns matching entries, newest first.
func (s *Store) Recent(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT id, started_at, source, kind, preset, dpi, encoding, compression,
			status, error_kind, error, artifact_count, bytes, estimate_min, estimate_max,
			failed_pages, duration_ms
		FROM conversions WHERE 1=1`)
	if opts.Source != "" {
		qb.WriteString(` AND instr(source, ?) > 0`)
		args = append(args, opts.Source)
	}
	if opts.Status != "" {
		qb.WriteString(` AND status = ?`)
		args = append(args, string(opts.Status))
	}
	qb.WriteString(` ORDER BY id DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e                       Entry
		started                 string
		kind, preset, encoding  string
		status, errKind, errMsg string
		estMin, estMax          sql.NullInt64
		failedJSON              string
		durationMS              int64
	)
	err := rows.Scan(&e.ID, &started, &e.Source, &kind, &preset, &e.Quality.DPI, &encoding,
		&e.Quality.Compression, &status, &errKind, &errMsg, &e.Artifacts, &e.Bytes,
		&estMin, &estMax, &failedJSON, &durationMS)
	if err != nil {
		return Entry{}, fmt.Errorf("scanning history row: %w", err)
	}

	e.StartedAt, _ = time.Parse(timeLayout, started)
	e.Kind = types.OutputKind(kind)
	e.Quality.Preset = types.Preset(preset)
	e.Quality.Encoding = types.Encoding(encoding)
	e.Status = types.ConversionStatus(status)
	e.ErrorKind = errKind
	e.Error = errMsg
	if estMin.Valid && estMax.Valid {
		e.Estimate = &types.SizeRange{Min: estMin.Int64, Max: estMax.Int64}
	}
	_ = json.Unmarshal([]byte(failedJSON), &e.FailedPages)
	e.Duration = time.Duration(durationMS) * time.Millisecond
	return e, nil
}

// Artifacts returns the artifact paths recorded for entry id, in page order.
func (s *Store) Artifacts(ctx context.Context, id int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM artifacts WHERE conversion_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Summary counts recorded conversions by status.
type Summary struct {
	Total  int                            `json:"total" yaml:"total"`
	Status map[types.ConversionStatus]int `json:"status" yaml:"status"`
	Bytes  int64                          `json:"bytes" yaml:"bytes"`
}

// Stats summarizes the whole history.
func (s *Store) Stats(ctx context.Context) (Summary, error) {
	sum := Summary{Status: map[types.ConversionStatus]int{}}
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, count(*), coalesce(sum(bytes), 0) FROM conversions GROUP BY status`)
	if err != nil {
		return sum, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
			bytes  int64
		)
		if err := rows.Scan(&status, &n, &bytes); err != nil {
			return sum, fmt.Errorf("scanning stats: %w", err)
		}
		sum.Status[types.ConversionStatus(status)] = n
		sum.Total += n
		sum.Bytes += bytes
	}
	return sum, rows.Err()
}

// Prune deletes entries started before cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM conversions WHERE started_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return res.RowsAffected()
}
