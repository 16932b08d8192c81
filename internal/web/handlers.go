package web

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/mztab/internal/logging"
	"github.com/JonMunkholm/mztab/internal/mztab"
	"github.com/JonMunkholm/mztab/internal/store"
	"github.com/JonMunkholm/mztab/internal/validate"
)

// defaultUploadName names raw-body uploads without a ?name= parameter.
const defaultUploadName = "upload.mztab"

// handleValidate validates the uploaded file and returns its report.
//
// The file is sent either as the "file" field of a multipart form or as the
// raw request body. Query parameters:
//
//	level       error | warn | info
//	max_errors  stop after n findings; cannot exceed the server limit
//	keep_rows   include parsed rows in the report
//	name        file name for raw-body uploads
//
// The file is streamed through the validator and never held in memory.
// A report is returned with status 200 whether or not the file is valid.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	opts, err := s.validateOptions(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	if err := s.limiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrTooManyUploads) {
			w.Header().Set("Retry-After", "5")
		}
		respondError(w, r, err, uploadStatus(err))
		return
	}
	defer s.limiter.Release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	body, name, err := openUpload(r)
	if err != nil {
		respondError(w, r, err, uploadStatus(err))
		return
	}
	defer body.Close()

	report, err := validate.New(opts).Validate(ctx, body, name, r.ContentLength)
	if err != nil {
		respondError(w, r, err, uploadStatus(err))
		return
	}
	if report.Lines == 0 {
		respondError(w, r, errEmptyFile, http.StatusBadRequest)
		return
	}

	if s.store != nil {
		if err := s.store.SaveReport(ctx, report); err != nil {
			respondError(w, r, fmt.Errorf("saving report %s: %w", report.ID, err), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("X-Report-ID", report.ID.String())
	writeJSON(w, r, report)
}

// validateOptions applies the query parameters to the configured defaults.
func (s *Server) validateOptions(r *http.Request) (validate.Options, error) {
	v := s.cfg.Validation
	opts := validate.Options{
		Level:     s.cfg.ErrorLevel(),
		MaxErrors: v.MaxErrors,
		KeepRows:  v.KeepRows,
	}
	q := r.URL.Query()

	if raw := q.Get("level"); raw != "" {
		level, err := mztab.ParseLevel(raw)
		if err != nil {
			return opts, fmt.Errorf("%w %q", errInvalidLevel, raw)
		}
		opts.Level = level
	}

	if raw := q.Get("max_errors"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("%w %q", errInvalidMaxErrors, raw)
		}
		// The server limit is an upper bound; 0 asks for no limit.
		if v.MaxErrors == 0 || (n > 0 && n < v.MaxErrors) {
			opts.MaxErrors = n
		}
	}

	if raw := q.Get("keep_rows"); raw != "" {
		keep, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("%w %q", errInvalidKeepRows, raw)
		}
		opts.KeepRows = keep
	}
	return opts, nil
}

// openUpload returns the uploaded file and its name. Multipart requests are
// read part by part so the file is not buffered.
func openUpload(r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = defaultUploadName
		}
		return r.Body, name, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", fmt.Errorf("reading multipart upload: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", errNoFile
		}
		if err != nil {
			return nil, "", fmt.Errorf("reading multipart upload: %w", err)
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		name := part.FileName()
		if name == "" {
			name = defaultUploadName
		}
		return part, name, nil
	}
}

// uploadStatus chooses the status code for a failed upload.
func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	case errors.Is(err, errNoFile), errors.Is(err, bufio.ErrTooLong),
		errors.Is(err, context.Canceled), errors.Is(err, http.ErrNotMultipart),
		errors.Is(err, http.ErrMissingBoundary):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleGetReport returns a stored report with its findings.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, errPersistenceDisabled, http.StatusNotImplemented)
		return
	}

	raw := chi.URLParam(r, "reportID")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, r, fmt.Errorf("%w %q", errInvalidReportID, raw), http.StatusBadRequest)
		return
	}

	report, err := s.store.GetReport(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, report)
}

// ReportList is the body of GET /api/reports.
type ReportList struct {
	Reports []*validate.Report `json:"reports"`
}

// handleListReports returns the latest reports without findings.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, errPersistenceDisabled, http.StatusNotImplemented)
		return
	}

	limit, err := parseIntParam(r, "limit", 50)
	if err != nil || limit <= 0 || limit > 500 {
		respondError(w, r, fmt.Errorf("%w %q", errInvalidLimit, r.URL.Query().Get("limit")), http.StatusBadRequest)
		return
	}

	reports, err := s.store.ListReports(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []*validate.Report{}
	}
	writeJSON(w, r, ReportList{Reports: reports})
}

// ErrorTypeInfo describes one catalogue entry.
type ErrorTypeInfo struct {
	ID           string         `json:"id"`
	Category     mztab.Category `json:"category"`
	Code         int            `json:"code"`
	Level        mztab.Level    `json:"level"`
	Effective    mztab.Level    `json:"effectiveLevel"`
	Downgradable bool           `json:"downgradable"`
	Title        string         `json:"title"`
	Template     string         `json:"template"`
}

// handleErrorTypes lists the error catalogue. effectiveLevel is the level
// a finding gets under ?level= (default: the server level).
func (s *Server) handleErrorTypes(w http.ResponseWriter, r *http.Request) {
	level := s.cfg.ErrorLevel()
	if raw := r.URL.Query().Get("level"); raw != "" {
		l, err := mztab.ParseLevel(raw)
		if err != nil {
			respondError(w, r, fmt.Errorf("%w %q", errInvalidLevel, raw), http.StatusBadRequest)
			return
		}
		level = l
	}
	list := mztab.NewErrorList(level, 0)

	types := mztab.ErrorTypes()
	out := make([]ErrorTypeInfo, 0, len(types))
	for _, t := range types {
		out = append(out, ErrorTypeInfo{
			ID:           t.ID(),
			Category:     t.Category,
			Code:         t.Code,
			Level:        t.Level,
			Effective:    list.Severity(t),
			Downgradable: t.Downgradable,
			Title:        t.Title,
			Template:     t.Template(),
		})
	}
	writeJSON(w, r, out)
}

// SectionInfo describes one tabular section.
type SectionInfo struct {
	Name         string       `json:"name"`
	HeaderMarker string       `json:"headerMarker"`
	DataMarker   string       `json:"dataMarker"`
	Columns      []ColumnInfo `json:"columns"`
}

// ColumnInfo describes one catalogue column. Indexed columns appear once,
// by base name.
type ColumnInfo struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Required  bool   `json:"required"`
	NotNull   bool   `json:"notNull,omitempty"`
	Indexed   bool   `json:"indexed,omitempty"`
	IndexKind string `json:"indexKind,omitempty"`
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	var out []SectionInfo
	for _, section := range mztab.Sections() {
		info := section.Info()
		si := SectionInfo{
			Name:         info.Name,
			HeaderMarker: info.HeaderMarker,
			DataMarker:   info.DataMarker,
		}
		for _, cs := range info.Columns {
			si.Columns = append(si.Columns, ColumnInfo{
				Name:      cs.Name,
				Type:      cs.Type.String(),
				Required:  cs.Required,
				NotNull:   cs.NotNull,
				Indexed:   cs.Indexed,
				IndexKind: string(cs.IndexKind),
			})
		}
		out = append(out, si)
	}
	writeJSON(w, r, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.limiter.Status())
}

// Health is the body of GET /healthz.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := Health{Status: "ok", Database: "disabled"}
	if s.store != nil {
		h.Database = "ok"
		if err := s.store.Ping(r.Context()); err != nil {
			logging.FromContext(r.Context()).Error("health check failed", "error", err)
			h.Status, h.Database = "unavailable", "unreachable"
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
	writeJSON(w, r, h)
}

// parseIntParam reads an integer query parameter, returning def when unset.
func parseIntParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
