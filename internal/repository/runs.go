package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veridian-labs/docsift/constants"
)

// RunRecord is one row of the extraction audit trail.
type RunRecord struct {
	ID         uuid.UUID           `json:"id"`
	DocumentID string              `json:"document_id"`
	Status     constants.RunStatus `json:"status"`
	Pages      int                 `json:"pages"`
	Images     int                 `json:"images"`
	Failures   int                 `json:"failures"`
	TextBytes  int                 `json:"text_bytes"`
	DurationMS int64               `json:"duration_ms"`
	CreatedAt  time.Time           `json:"created_at"`
}

// RunFailure is one recorded page- or image-level failure of a run.
// ImageIndex 0 marks a page-level entry.
type RunFailure struct {
	PageIndex  int    `json:"page"`
	ImageIndex int    `json:"image,omitempty"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

// RunStore persists extraction runs on a database/sql handle. Placeholders
// use the $N form, which both pgx and sqlite accept.
type RunStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRunStore(db *sql.DB, logger *slog.Logger) *RunStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunStore{db: db, logger: logger}
}

// EnsureSchema creates the run tables when missing.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS extraction_run (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			status TEXT NOT NULL,
			pages INTEGER NOT NULL,
			images INTEGER NOT NULL,
			failures INTEGER NOT NULL,
			text_bytes INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_failure (
			run_id TEXT NOT NULL,
			page INTEGER NOT NULL,
			image INTEGER NOT NULL,
			kind TEXT NOT NULL,
			message TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS run_failure_run_id ON run_failure (run_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Record inserts one run and its failure entries atomically.
func (s *RunStore) Record(ctx context.Context, rec RunRecord, failures []RunFailure) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO extraction_run (id, document_id, status, pages, images, failures, text_bytes, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID.String(), rec.DocumentID, string(rec.Status),
		rec.Pages, rec.Images, rec.Failures, rec.TextBytes, rec.DurationMS, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, f := range failures {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_failure (run_id, page, image, kind, message) VALUES ($1, $2, $3, $4, $5)`,
			rec.ID.String(), f.PageIndex, f.ImageIndex, f.Kind, f.Message,
		)
		if err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("repository.run.recorded", "run_id", rec.ID.String(), "failures", len(failures))
	return nil
}

// List returns the most recent runs, newest first.
func (s *RunStore) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, status, pages, images, failures, text_bytes, duration_ms, created_at
		 FROM extraction_run ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns one run and its failure entries.
func (s *RunStore) Get(ctx context.Context, id uuid.UUID) (RunRecord, []RunFailure, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, status, pages, images, failures, text_bytes, duration_ms, created_at
		 FROM extraction_run WHERE id = $1`, id.String())
	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return RunRecord{}, nil, fmt.Errorf("run %s: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return RunRecord{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT page, image, kind, message FROM run_failure WHERE run_id = $1 ORDER BY page, image`, id.String())
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("run failures: %w", err)
	}
	defer rows.Close()

	var failures []RunFailure
	for rows.Next() {
		var f RunFailure
		if err := rows.Scan(&f.PageIndex, &f.ImageIndex, &f.Kind, &f.Message); err != nil {
			return RunRecord{}, nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return rec, failures, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var rec RunRecord
	var id, status string
	if err := row.Scan(&id, &rec.DocumentID, &status, &rec.Pages, &rec.Images,
		&rec.Failures, &rec.TextBytes, &rec.DurationMS, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return RunRecord{}, fmt.Errorf("run id %q: %w", id, err)
	}
	rec.ID = parsed
	rec.Status = constants.RunStatus(status)
	return rec, nil
}
