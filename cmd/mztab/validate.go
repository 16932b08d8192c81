package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/mztab/internal/mztab"
	"github.com/JonMunkholm/mztab/internal/store"
	"github.com/JonMunkholm/mztab/internal/validate"
)

// Validate-specific flag values.
var (
	validateLevel       string
	validateMaxErrors   int
	validateJSON        bool
	validateKeepRows    bool
	validateJobs        int
	validateDatabaseURL string
)

// validateCmd validates one or more files.
var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate mzTab files",
	Long: `Validate mzTab files and print their findings.

Files are validated concurrently; each gets its own metadata and error list.
Use "-" to read from stdin:
  mztab validate sample.mztab
  mztab validate --level warn a.mztab b.mztab
  cat sample.mztab | mztab validate -

With --level warn or info, checks that allow it (such as a spectra_ref run
without a location) are reported as warnings and do not fail the file.

The exit code is 0 when every file is valid, 1 when any file has errors,
2 for usage errors and 3 when a file cannot be read.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateLevel, "level", "error", "error level threshold: error, warn or info")
	f.IntVar(&validateMaxErrors, "max-errors", 0, "stop a file after this many findings (0 = no limit)")
	f.BoolVar(&validateJSON, "json", false, "print reports as JSON")
	f.BoolVar(&validateKeepRows, "keep-rows", false, "include parsed rows in JSON reports")
	f.IntVarP(&validateJobs, "jobs", "j", 4, "number of files validated at once")
	f.StringVar(&validateDatabaseURL, "database-url", "", "store reports in this PostgreSQL database")
}

// fileResult is the outcome for one argument.
type fileResult struct {
	name   string
	report *validate.Report
	err    error
}

func runValidate(cmd *cobra.Command, args []string) error {
	level, err := mztab.ParseLevel(validateLevel)
	if err != nil {
		return exitError(ExitUsage, "mztab: --level must be error, warn or info, got %q", validateLevel)
	}
	if validateMaxErrors < 0 {
		return exitError(ExitUsage, "mztab: --max-errors must be non-negative")
	}
	if validateJobs < 1 {
		return exitError(ExitUsage, "mztab: --jobs must be at least 1")
	}
	stdin := 0
	for _, a := range args {
		if a == "-" {
			stdin++
		}
	}
	if stdin > 1 {
		return exitError(ExitUsage, "mztab: stdin can only be read once")
	}

	ctx := cmd.Context()
	v := validate.New(validate.Options{
		Level:     level,
		MaxErrors: validateMaxErrors,
		KeepRows:  validateKeepRows,
	})

	results := make([]fileResult, len(args))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(validateJobs)
	for i, name := range args {
		i, name := i, name
		g.Go(func() error {
			report, err := validateFile(gctx, v, cmd.InOrStdin(), name)
			results[i] = fileResult{name: name, report: report, err: err}
			// Keep going after a bad file; only interruption stops the run.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return exitError(ExitIO, "mztab: interrupted: %v", err)
	}

	if validateDatabaseURL != "" {
		if err := storeReports(ctx, validateDatabaseURL, results); err != nil {
			return exitError(ExitIO, "mztab: %v", err)
		}
	}

	if validateJSON {
		if err := writeJSONReports(cmd.OutOrStdout(), results); err != nil {
			return exitError(ExitIO, "mztab: writing output: %v", err)
		}
	} else {
		writeText(cmd.OutOrStdout(), results)
	}

	code := ExitOK
	for _, r := range results {
		switch {
		case r.err != nil:
			code = ExitIO
		case r.report.Failed && code == ExitOK:
			code = ExitInvalid
		}
	}
	if code != ExitOK {
		return exitError(code, "")
	}
	return nil
}

// validateFile validates one argument; "-" is stdin.
func validateFile(ctx context.Context, v *validate.Validator, stdin io.Reader, name string) (*validate.Report, error) {
	if name == "-" {
		return v.Validate(ctx, stdin, "<stdin>", 0)
	}

	f, err := os.Open(name) //nolint:gosec // user-provided path is expected
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return v.Validate(ctx, f, name, size)
}

// storeReports saves every successful report.
func storeReports(ctx context.Context, url string, results []fileResult) error {
	st, err := store.Open(ctx, url, 2)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}
	for _, r := range results {
		if r.report == nil {
			continue
		}
		if err := st.SaveReport(ctx, r.report); err != nil {
			return fmt.Errorf("storing report for %s: %w", r.name, err)
		}
	}
	return nil
}

// jsonResult is the JSON form of a fileResult.
type jsonResult struct {
	File   string           `json:"file"`
	Error  string           `json:"error,omitempty"`
	Report *validate.Report `json:"report,omitempty"`
}

func writeJSONReports(w io.Writer, results []fileResult) error {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{File: r.name, Report: r.report}
		if r.err != nil {
			out[i].Error = r.err.Error()
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Shared color printers.
var (
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
	colorGreen  = color.New(color.FgGreen)
	colorBold   = color.New(color.Bold)
	colorDim    = color.New(color.Faint)
)

// colorLevel colors a level label.
func colorLevel(l mztab.Level) string {
	label := strings.ToUpper(l.String())
	switch l {
	case mztab.LevelError:
		return colorRed.Sprint(label)
	case mztab.LevelWarn:
		return colorYellow.Sprint(label)
	default:
		return colorCyan.Sprint(label)
	}
}

// writeText prints one block per file:
//
//	sample.mztab
//	  line 12  spectra_ref  ERROR  L2001 SpectraRefLocation  "ms_run[2]:index=9" ...
//	  invalid: 1 error, 0 warnings in 12 lines
func writeText(w io.Writer, results []fileResult) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, colorBold.Sprint(r.name))

		if r.err != nil {
			fmt.Fprintf(w, "  %s %v\n", colorRed.Sprint("cannot read:"), r.err)
			continue
		}

		rep := r.report
		for _, e := range rep.Errors {
			col := ""
			if e.Column != "" {
				col = "  " + e.Column
			}
			fmt.Fprintf(w, "  line %d%s  %s  %s %s  %s\n",
				e.Line, col, colorLevel(e.Level), e.ID, colorDim.Sprint(e.Title), e.Message)
		}

		status := colorGreen.Sprint("valid")
		if rep.Failed {
			status = colorRed.Sprint("invalid")
		}
		fmt.Fprintf(w, "  %s: %s, %s in %d lines",
			status, plural(rep.Counts.Errors, "error"), plural(rep.Counts.Warnings, "warning"), rep.Lines)
		if rep.Truncated {
			fmt.Fprint(w, colorYellow.Sprint(" (stopped at the error limit)"))
		}
		fmt.Fprintln(w)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
