// Package validate drives the mzTab core over a whole file: it reads lines,
// fills the metadata store from MTD lines, dispatches header and data lines
// to per-section parsers and collects everything into a Report.
package validate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/mztab/internal/logging"
	"github.com/JonMunkholm/mztab/internal/mztab"
)

// CommentMarker starts comment lines, which are skipped.
const CommentMarker = "COM"

// ContextCheckInterval is how often (in lines) to check for cancellation.
var ContextCheckInterval = 100

// Options configures a validation run.
type Options struct {
	// Level is the error list threshold. Downgradable checks are reported
	// as warnings when it is LevelWarn or LevelInfo.
	Level mztab.Level

	// MaxErrors stops the run once this many findings were recorded.
	// Zero means no limit.
	MaxErrors int

	// KeepRows stores parsed rows in the report.
	KeepRows bool
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Level: mztab.LevelError}
}

// Validator validates mzTab files. It holds no per-file state and can be
// shared between goroutines.
type Validator struct {
	opts Options
}

// New returns a validator.
func New(opts Options) *Validator {
	return &Validator{opts: opts}
}

// Options returns the validator's options.
func (v *Validator) Options() Options {
	return v.opts
}

// sectionState is the parse state of one section within a file.
type sectionState struct {
	summary *SectionSummary
	data    *mztab.DataLineParser
	aborted bool
	warned  bool // HeaderMissing already reported
}

// run holds the state of one Validate call.
type run struct {
	opts     Options
	logger   *slog.Logger
	md       *mztab.Metadata
	errs     *mztab.ErrorList
	mtd      *metadataParser
	sections map[mztab.Section]*sectionState
	report   *Report
}

// Validate reads an mzTab file from r. total is the input size in bytes if
// known, for progress logging. The returned error is only set for read
// failures and cancellation; validation findings are in the report.
func (v *Validator) Validate(ctx context.Context, r io.Reader, name string, total int64) (*Report, error) {
	start := time.Now()
	report := &Report{
		ID:        uuid.New(),
		Name:      name,
		Level:     v.opts.Level,
		StartedAt: start.UTC(),
	}
	errs := mztab.NewErrorList(v.opts.Level, v.opts.MaxErrors)
	md := mztab.NewMetadata()
	st := &run{
		opts:     v.opts,
		logger:   logging.WithFields(ctx, "report_id", report.ID, "file", name),
		md:       md,
		errs:     errs,
		mtd:      newMetadataParser(md, errs),
		sections: make(map[mztab.Section]*sectionState),
		report:   report,
	}
	st.logger.Info("validation started", "level", v.opts.Level, "max_errors", v.opts.MaxErrors)

	src := NewLineSource(r, total)
	for {
		lineNumber, line, ok := src.Next()
		if !ok {
			break
		}
		report.Lines = lineNumber

		if lineNumber%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("validation cancelled at line %d: %w", lineNumber, err)
			}
		}

		if err := st.dispatch(lineNumber, line); err != nil {
			if errors.Is(err, mztab.ErrTooManyErrors) {
				report.Truncated = true
				st.logger.Warn("error limit reached, validation stopped",
					"line", lineNumber, "max_errors", v.opts.MaxErrors)
				break
			}
			return nil, err
		}
	}
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	report.finish(errs, md, time.Since(start))
	for _, e := range report.Errors {
		st.logger.Debug("finding", "id", e.ID, "level", e.Level, "line", e.Line, "column", e.Column, "message", e.Message)
	}
	st.logger.Info("validation completed",
		"lines", report.Lines,
		"errors", report.Counts.Errors,
		"warnings", report.Counts.Warnings,
		"failed", report.Failed,
		"truncated", report.Truncated,
		"bytes", src.BytesRead(),
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// dispatch routes one line by its marker. Only structural errors are returned.
func (st *run) dispatch(lineNumber int, line string) error {
	if line == "" {
		return nil
	}
	marker, _, _ := strings.Cut(line, "\t")

	switch marker {
	case CommentMarker:
		return nil
	case MetadataMarker:
		return st.mtd.Parse(lineNumber, line)
	}
	if section, ok := mztab.SectionByHeaderMarker(marker); ok {
		return st.header(section, lineNumber, line)
	}
	if section, ok := mztab.SectionByDataMarker(marker); ok {
		return st.data(section, lineNumber, line)
	}
	return st.errs.Add(mztab.NewError(mztab.FormatLinePrefix, lineNumber, "", "MTD, COM or a section marker", marker))
}

func (st *run) header(section mztab.Section, lineNumber int, line string) error {
	summary := &SectionSummary{Section: section, HeaderLine: lineNumber}
	state := &sectionState{summary: summary}
	st.sections[section] = state
	st.report.Sections = append(st.report.Sections, summary)

	f, m, _, err := mztab.NewHeaderLineParser(section, st.md, st.errs).Parse(lineNumber, line)
	switch {
	case errors.Is(err, mztab.ErrNoMandatoryColumns):
		state.aborted = true
		summary.Aborted = true
		st.logger.Warn("section skipped, header has no mandatory columns", "section", section, "line", lineNumber)
		return nil
	case err != nil:
		return err
	}

	for _, c := range f.Columns() {
		summary.Columns = append(summary.Columns, c.Header())
	}
	state.data = mztab.NewDataLineParser(f, m, st.md, st.errs)
	st.logger.Info("section started", "section", section, "line", lineNumber, "columns", f.Len(), "optional", len(f.OptionalColumns()))
	return nil
}

func (st *run) data(section mztab.Section, lineNumber int, line string) error {
	state, ok := st.sections[section]
	if !ok {
		state = &sectionState{}
		st.sections[section] = state
	}
	if state.aborted {
		return nil
	}
	if state.data == nil {
		if state.warned {
			return nil
		}
		state.warned = true
		info := section.Info()
		return st.errs.Add(mztab.NewError(mztab.FormatHeaderMissing, lineNumber, "", info.DataMarker, info.HeaderMarker))
	}

	row, _, err := state.data.Parse(lineNumber, line)
	if err != nil {
		return err
	}
	state.summary.Rows++
	if st.opts.KeepRows {
		st.report.Rows = append(st.report.Rows, newRowRecord(row))
	}
	return nil
}
