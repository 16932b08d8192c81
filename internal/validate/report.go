package validate

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/mztab/internal/mztab"
)

// Report is the outcome of validating one file.
type Report struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Level     mztab.Level       `json:"level"`
	StartedAt time.Time         `json:"startedAt"`
	Duration  time.Duration     `json:"durationNs"`
	Lines     int               `json:"lines"`
	Version   string            `json:"mzTabVersion,omitempty"`
	Sections  []*SectionSummary `json:"sections"`
	Errors    []Entry           `json:"errors"`
	Counts    Counts            `json:"counts"`

	// Failed is true when any finding has LevelError. Warnings alone do not
	// fail a file.
	Failed bool `json:"failed"`

	// Truncated is true when the run stopped at the error limit.
	Truncated bool `json:"truncated"`

	Rows []RowRecord `json:"rows,omitempty"`
}

// SectionSummary describes one tabular section of the file.
type SectionSummary struct {
	Section    mztab.Section `json:"section"`
	HeaderLine int           `json:"headerLine"`
	Columns    []string      `json:"columns"`
	Rows       int           `json:"rows"`
	Aborted    bool          `json:"aborted,omitempty"`
}

// Entry is the serialisable form of one finding.
type Entry struct {
	ID       string         `json:"id"`
	Category mztab.Category `json:"category"`
	Title    string         `json:"title"`
	Level    mztab.Level    `json:"level"`
	Line     int            `json:"line"`
	Column   string         `json:"column,omitempty"`
	Message  string         `json:"message"`
}

// Counts totals findings by level.
type Counts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// RowRecord is a parsed data row with plain JSON-friendly values.
type RowRecord struct {
	Section mztab.Section  `json:"section"`
	Line    int            `json:"line"`
	Values  map[string]any `json:"values"`
}

// NewEntry converts a finding.
func NewEntry(e *mztab.Error) Entry {
	return Entry{
		ID:       e.Type.ID(),
		Category: e.Type.Category,
		Title:    e.Type.Title,
		Level:    e.Level,
		Line:     e.LineNumber,
		Column:   e.Column,
		Message:  e.Message,
	}
}

func (r *Report) finish(errs *mztab.ErrorList, md *mztab.Metadata, elapsed time.Duration) {
	r.Duration = elapsed
	r.Version, _ = md.Property("mzTab-version")
	r.Errors = make([]Entry, 0, errs.Len())
	for _, e := range errs.Errors() {
		r.Errors = append(r.Errors, NewEntry(e))
	}
	counts := errs.Counts()
	r.Counts = Counts{
		Errors:   counts[mztab.LevelError],
		Warnings: counts[mztab.LevelWarn],
		Infos:    counts[mztab.LevelInfo],
	}
	r.Failed = errs.Failed()
}

func newRowRecord(row *mztab.Row) RowRecord {
	values := row.Values()
	for k, v := range values {
		values[k] = PlainValue(v)
	}
	return RowRecord{Section: row.Section(), Line: row.LineNumber(), Values: values}
}

// PlainValue converts a parsed cell to a value encoding/json can marshal.
// Non-finite doubles are rendered with their mzTab spelling.
func PlainValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case pgtype.Text:
		if !t.Valid {
			return nil
		}
		return t.String
	case pgtype.Int8:
		if !t.Valid {
			return nil
		}
		return t.Int64
	case pgtype.Int2:
		if !t.Valid {
			return nil
		}
		return t.Int16
	case pgtype.Bool:
		if !t.Valid {
			return nil
		}
		return t.Bool
	case pgtype.Float8:
		if !t.Valid {
			return nil
		}
		return plainFloat(t.Float64)
	case []float64:
		out := make([]any, len(t))
		for i, f := range t {
			out[i] = plainFloat(f)
		}
		return out
	case []mztab.SpectraRef:
		out := make([]string, len(t))
		for i, ref := range t {
			out[i] = ref.String()
		}
		return out
	default:
		return v
	}
}

func plainFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return mztab.CalculateErr
	case math.IsInf(f, 1):
		return mztab.Infinity
	case math.IsInf(f, -1):
		return mztab.NegInfinity
	default:
		return f
	}
}
