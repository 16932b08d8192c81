package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/mztab/internal/mztab"
	"github.com/JonMunkholm/mztab/internal/validate"
)

func sampleReport() *validate.Report {
	return &validate.Report{
		ID:        uuid.MustParse("4f1c2a9e-7b1d-4a53-9a43-0c2f7f0e2b11"),
		Name:      "sample.mztab",
		Level:     mztab.LevelWarn,
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Lines:     12,
		Version:   "1.0.0",
		Sections: []*validate.SectionSummary{
			{Section: mztab.SectionPSM, HeaderLine: 9, Columns: []string{"sequence", "PSM_ID"}, Rows: 2},
		},
		Errors: []validate.Entry{
			{ID: "L2001", Category: mztab.CategoryLogical, Title: "SpectraRefLocation", Level: mztab.LevelWarn, Line: 10, Column: "spectra_ref", Message: "m1"},
			{ID: "F1005", Category: mztab.CategoryFormat, Title: "ColumnCount", Level: mztab.LevelError, Line: 11, Message: "m2"},
		},
		Counts: validate.Counts{Errors: 1, Warnings: 1},
		Failed: true,
		Rows: []validate.RowRecord{
			{Section: mztab.SectionPSM, Line: 10, Values: map[string]any{"PSM_ID": int64(1), "modifications": nil}},
		},
	}
}

func TestErrorRows(t *testing.T) {
	r := sampleReport()
	rows := errorRows(r)
	require.Len(t, rows, 2)

	assert.Equal(t, pgtype.UUID{Bytes: r.ID, Valid: true}, rows[0][0])
	assert.Equal(t, int32(1), rows[0][1])
	assert.Equal(t, "L2001", rows[0][2])
	assert.Equal(t, "warn", rows[0][4])
	assert.Equal(t, pgtype.Text{String: "spectra_ref", Valid: true}, rows[0][6])

	assert.Equal(t, int32(2), rows[1][1])
	assert.Equal(t, pgtype.Text{}, rows[1][6], "line-level findings have no column")
	for _, row := range rows {
		assert.Len(t, row, len(errorColumns))
	}
}

func TestRowRows(t *testing.T) {
	rows, err := rowRows(sampleReport())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(rowColumns))
	assert.Equal(t, "PSM", rows[0][1])
	assert.JSONEq(t, `{"PSM_ID":1,"modifications":null}`, string(rows[0][3].([]byte)))

	bad := sampleReport()
	bad.Rows[0].Values["x"] = func() {}
	_, err = rowRows(bad)
	assert.Error(t, err)
}

func TestSchemaStatements(t *testing.T) {
	for _, stmt := range schema {
		assert.True(t, strings.HasPrefix(stmt, "CREATE "), stmt)
		assert.Contains(t, stmt, "IF NOT EXISTS")
	}
	assert.Equal(t, 12, strings.Count(insertReportSQL, "$"))
}

// TestStoreRoundTrip needs a disposable database in MZTAB_TEST_DATABASE_URL.
func TestStoreRoundTrip(t *testing.T) {
	url := os.Getenv("MZTAB_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MZTAB_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	s, err := Open(ctx, url, 2)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EnsureSchema(ctx))

	r := sampleReport()
	r.ID = uuid.New()
	require.NoError(t, s.SaveReport(ctx, r))

	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Name, got.Name)
	assert.Equal(t, r.Level, got.Level)
	assert.Equal(t, r.Duration, got.Duration)
	assert.Equal(t, r.Errors, got.Errors)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, mztab.SectionPSM, got.Sections[0].Section)

	_, err = s.GetReport(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListReports(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	n, err := s.DeleteReportsBefore(ctx, r.StartedAt.Add(time.Second), 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
	_, err = s.GetReport(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
