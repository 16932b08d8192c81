// Package store persists validation reports in PostgreSQL.
//
// Persistence is optional: the server runs without a store when no database
// URL is configured. Reports, their findings and (when kept) their parsed
// rows are written in one transaction; findings and rows are bulk-loaded
// with COPY.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/mztab/internal/mztab"
	"github.com/JonMunkholm/mztab/internal/validate"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Store reads and writes reports.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to url and verifies the connection.
func Open(ctx context.Context, url string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks the connection; used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return ensureSchema(ctx, s.pool)
}

func ensureSchema(ctx context.Context, db DBTX) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveReport writes r with its findings and rows.
func (s *Store) SaveReport(ctx context.Context, r *validate.Report) error {
	sections, err := json.Marshal(r.Sections)
	if err != nil {
		return fmt.Errorf("encode sections: %w", err)
	}
	rows, err := rowRows(r)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if _, err := tx.Exec(ctx, insertReportSQL,
		pgUUID(r.ID), r.Name, r.Level.String(), r.Version, r.Lines,
		r.Counts.Errors, r.Counts.Warnings, r.Failed, r.Truncated,
		sections, r.StartedAt, r.Duration.Milliseconds(),
	); err != nil {
		return fmt.Errorf("insert report %s: %w", r.ID, err)
	}

	if len(r.Errors) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"mztab_errors"}, errorColumns, pgx.CopyFromRows(errorRows(r))); err != nil {
			return fmt.Errorf("copy errors of report %s: %w", r.ID, err)
		}
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"mztab_rows"}, rowColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy rows of report %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetReport loads a report with its findings. Rows are not loaded.
func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (*validate.Report, error) {
	r, err := scanReport(s.pool.QueryRow(ctx, selectReportSQL+" WHERE id = $1", pgUUID(id)))
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, selectErrorsSQL, pgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("query errors of report %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			e      validate.Entry
			level  string
			column pgtype.Text
		)
		if err := rows.Scan(&e.ID, &e.Title, &level, &e.Line, &column, &e.Message); err != nil {
			return nil, fmt.Errorf("scan error row: %w", err)
		}
		if et, ok := mztab.LookupErrorType(e.ID); ok {
			e.Category = et.Category
		}
		e.Level, _ = mztab.ParseLevel(level)
		e.Column = column.String
		r.Errors = append(r.Errors, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read errors of report %s: %w", id, err)
	}
	return r, nil
}

// ListReports returns the most recent reports without their findings.
func (s *Store) ListReports(ctx context.Context, limit int) ([]*validate.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, selectReportSQL+" ORDER BY started_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []*validate.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteReportsBefore deletes reports started before cutoff, batchSize at a
// time, and returns how many were removed.
func (s *Store) DeleteReportsBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	return deleteReportsBefore(ctx, s.pool, cutoff, batchSize)
}

func deleteReportsBefore(ctx context.Context, db DBTX, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	var total int64
	for {
		tag, err := db.Exec(ctx, deleteReportsSQL, cutoff, batchSize)
		if err != nil {
			return total, fmt.Errorf("delete reports before %s: %w", cutoff.Format(time.RFC3339), err)
		}
		total += tag.RowsAffected()
		if tag.RowsAffected() < int64(batchSize) {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}

func scanReport(row pgx.Row) (*validate.Report, error) {
	var (
		r          validate.Report
		id         pgtype.UUID
		level      string
		version    pgtype.Text
		sections   []byte
		durationMS int64
	)
	err := row.Scan(&id, &r.Name, &level, &version, &r.Lines,
		&r.Counts.Errors, &r.Counts.Warnings, &r.Failed, &r.Truncated,
		&sections, &r.StartedAt, &durationMS)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	r.ID = uuid.UUID(id.Bytes)
	r.Level, _ = mztab.ParseLevel(level)
	r.Version = version.String
	r.Duration = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal(sections, &r.Sections); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	return &r, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
