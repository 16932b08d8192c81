package store

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/mztab/internal/validate"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS mztab_reports (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		level         TEXT NOT NULL,
		mztab_version TEXT,
		lines         INTEGER NOT NULL,
		errors        INTEGER NOT NULL,
		warnings      INTEGER NOT NULL,
		failed        BOOLEAN NOT NULL,
		truncated     BOOLEAN NOT NULL,
		sections      JSONB NOT NULL,
		started_at    TIMESTAMPTZ NOT NULL,
		duration_ms   BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS mztab_reports_started_at_idx ON mztab_reports (started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS mztab_errors (
		report_id  UUID NOT NULL REFERENCES mztab_reports (id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		error_id   TEXT NOT NULL,
		title      TEXT NOT NULL,
		level      TEXT NOT NULL,
		line       INTEGER NOT NULL,
		col        TEXT,
		message    TEXT NOT NULL,
		PRIMARY KEY (report_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS mztab_rows (
		report_id  UUID NOT NULL REFERENCES mztab_reports (id) ON DELETE CASCADE,
		section    TEXT NOT NULL,
		line       INTEGER NOT NULL,
		vals       JSONB NOT NULL,
		PRIMARY KEY (report_id, line)
	)`,
}

const insertReportSQL = `INSERT INTO mztab_reports
	(id, name, level, mztab_version, lines, errors, warnings, failed, truncated, sections, started_at, duration_ms)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12)`

const selectReportSQL = `SELECT id, name, level, mztab_version, lines, errors, warnings, failed, truncated,
	sections, started_at, duration_ms FROM mztab_reports`

// deleteReportsSQL removes one batch; findings and rows follow by cascade.
const deleteReportsSQL = `DELETE FROM mztab_reports WHERE id IN (
	SELECT id FROM mztab_reports WHERE started_at < $1 ORDER BY started_at LIMIT $2)`

const selectErrorsSQL = `SELECT error_id, title, level, line, col, message
	FROM mztab_errors WHERE report_id = $1 ORDER BY seq`

var (
	errorColumns = []string{"report_id", "seq", "error_id", "title", "level", "line", "col", "message"}
	rowColumns   = []string{"report_id", "section", "line", "vals"}
)

// errorRows builds the COPY input for the findings of r. seq keeps the
// order in which findings were recorded.
func errorRows(r *validate.Report) [][]any {
	id := pgUUID(r.ID)
	out := make([][]any, len(r.Errors))
	for i, e := range r.Errors {
		column := pgtype.Text{String: e.Column, Valid: e.Column != ""}
		out[i] = []any{id, int32(i + 1), e.ID, e.Title, e.Level.String(), int32(e.Line), column, e.Message}
	}
	return out
}

// rowRows builds the COPY input for the parsed rows of r.
func rowRows(r *validate.Report) ([][]any, error) {
	id := pgUUID(r.ID)
	out := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		vals, err := json.Marshal(row.Values)
		if err != nil {
			return nil, fmt.Errorf("encode row at line %d: %w", row.Line, err)
		}
		out[i] = []any{id, row.Section.String(), int32(row.Line), vals}
	}
	return out, nil
}
