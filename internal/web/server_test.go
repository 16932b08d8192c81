package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/mztab/internal/config"
	"github.com/JonMunkholm/mztab/internal/mztab"
	"github.com/JonMunkholm/mztab/internal/store"
	"github.com/JonMunkholm/mztab/internal/validate"
)

var psmHeader = []string{
	"PSH", "sequence", "PSM_ID", "accession", "unique", "database", "database_version",
	"search_engine", "search_engine_score[1]", "modifications", "retention_time",
	"charge", "exp_mass_to_charge", "calc_mass_to_charge", "spectra_ref",
	"pre", "post", "start", "end",
}

func psmRow(id, spectraRef string) string {
	return strings.Join([]string{
		"PSM", "KVPQVSTPTLVEVSR", id, "P02768", "1", "UniProtKB", "2013_08",
		"[MS, MS:1001207, Mascot, ]", "0.4", "null", "1.3",
		"2", "1034.2", "1034.5", spectraRef,
		"K", "D", "45", "57",
	}, "\t")
}

// sampleFile declares two runs; run2Location may be "null".
func sampleFile(run2Location string, rows ...string) string {
	lines := []string{
		"MTD\tmzTab-version\t1.0.0",
		"MTD\tms_run[1]-location\tfile:///data/run1.mzML",
		"MTD\tms_run[2]-location\t" + run2Location,
		"MTD\tpsm_search_engine_score[1]\t[MS, MS:1001171, Mascot:score, ]",
		strings.Join(psmHeader, "\t"),
	}
	lines = append(lines, rows...)
	return strings.Join(lines, "\n") + "\n"
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ShutdownTimeout: time.Second,
			RequestTimeout:  5 * time.Second,
		},
		Validation: config.ValidationConfig{Level: "error", MaxErrors: 100},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   50 * time.Millisecond,
			Timeout:       10 * time.Second,
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

type fakeStore struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*validate.Report
	pingErr error
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{reports: make(map[uuid.UUID]*validate.Report)}
}

func (f *fakeStore) SaveReport(_ context.Context, r *validate.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.reports[r.ID] = r
	return nil
}

func (f *fakeStore) GetReport(_ context.Context, id uuid.UUID) (*validate.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListReports(_ context.Context, limit int) ([]*validate.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*validate.Report
	for _, r := range f.reports {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.pingErr
}

func newTestServer(t *testing.T, cfg *config.Config, st ReportStore) *Server {
	t.Helper()
	s := NewServer(cfg, st)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) *validate.Report {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var r validate.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return &r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("comment", "before the file"))
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestValidate_RawBody(t *testing.T) {
	st := newFakeStore()
	s := newTestServer(t, testConfig(), st)

	content := sampleFile("file:///data/run2.mzML",
		psmRow("1", "ms_run[1]:index=5"),
		psmRow("2", "ms_run[2]:index=9"),
	)
	req := httptest.NewRequest(http.MethodPost, "/api/validate?name=ok.mztab", strings.NewReader(content))
	rec := do(s, req)

	report := decodeReport(t, rec)
	assert.Equal(t, "ok.mztab", report.Name)
	assert.False(t, report.Failed)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 7, report.Lines)
	require.Len(t, report.Sections, 1)
	assert.Equal(t, mztab.SectionPSM, report.Sections[0].Section)
	assert.Equal(t, 2, report.Sections[0].Rows)
	assert.Empty(t, report.Rows, "rows are not kept by default")

	assert.Equal(t, report.ID.String(), rec.Header().Get("X-Report-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	_, stored := st.reports[report.ID]
	assert.True(t, stored)
}

func TestValidate_Multipart(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	body, contentType := multipartBody(t, "sample.mztab",
		sampleFile("file:///data/run2.mzML", psmRow("1", "ms_run[1]:index=5")))
	req := httptest.NewRequest(http.MethodPost, "/api/validate?keep_rows=true", body)
	req.Header.Set("Content-Type", contentType)

	report := decodeReport(t, do(s, req))
	assert.Equal(t, "sample.mztab", report.Name)
	assert.False(t, report.Failed)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, float64(1), report.Rows[0].Values["PSM_ID"], "JSON numbers decode as float64")
}

func TestValidate_LevelOverride(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	content := sampleFile("null", psmRow("1", "ms_run[2]:index=9"))

	tests := []struct {
		query      string
		wantLevel  mztab.Level
		wantFailed bool
	}{
		{query: "", wantLevel: mztab.LevelError, wantFailed: true},
		{query: "?level=warn", wantLevel: mztab.LevelWarn, wantFailed: false},
		{query: "?level=info", wantLevel: mztab.LevelWarn, wantFailed: false},
	}

	for _, tt := range tests {
		t.Run("level"+tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/validate"+tt.query, strings.NewReader(content))
			report := decodeReport(t, do(s, req))

			require.Len(t, report.Errors, 1)
			assert.Equal(t, mztab.LogicalSpectraRefLocation.ID(), report.Errors[0].ID)
			assert.Equal(t, tt.wantLevel, report.Errors[0].Level)
			assert.Equal(t, tt.wantFailed, report.Failed)
		})
	}
}

func TestValidate_MaxErrorsBoundedByServer(t *testing.T) {
	cfg := testConfig()
	cfg.Validation.MaxErrors = 2
	s := newTestServer(t, cfg, nil)

	// Every row references an undeclared run.
	content := sampleFile("file:///data/run2.mzML",
		psmRow("1", "ms_run[7]:index=1"),
		psmRow("2", "ms_run[7]:index=2"),
		psmRow("3", "ms_run[7]:index=3"),
		psmRow("4", "ms_run[7]:index=4"),
	)

	for _, query := range []string{"", "?max_errors=0", "?max_errors=50"} {
		req := httptest.NewRequest(http.MethodPost, "/api/validate"+query, strings.NewReader(content))
		report := decodeReport(t, do(s, req))
		assert.True(t, report.Truncated, query)
		assert.Len(t, report.Errors, 2, query)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/validate?max_errors=1", strings.NewReader(content))
	report := decodeReport(t, do(s, req))
	assert.True(t, report.Truncated)
	assert.Len(t, report.Errors, 1)
}

func TestValidate_Rejected(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	noFile, noFileType := multipartBody(t, "", "")

	tests := []struct {
		name        string
		target      string
		body        io.Reader
		contentType string
		wantStatus  int
		wantCode    string
	}{
		{name: "bad level", target: "/api/validate?level=loud", body: strings.NewReader("x"), wantStatus: http.StatusBadRequest, wantCode: "REQ001"},
		{name: "negative max errors", target: "/api/validate?max_errors=-1", body: strings.NewReader("x"), wantStatus: http.StatusBadRequest, wantCode: "REQ002"},
		{name: "bad keep rows", target: "/api/validate?keep_rows=maybe", body: strings.NewReader("x"), wantStatus: http.StatusBadRequest, wantCode: "REQ005"},
		{name: "empty body", target: "/api/validate", body: strings.NewReader(""), wantStatus: http.StatusBadRequest, wantCode: "FILE004"},
		{name: "no file part", target: "/api/validate", body: noFile, contentType: noFileType, wantStatus: http.StatusBadRequest, wantCode: "FILE003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, tt.body)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := do(s, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.NotEmpty(t, e.Error)
			assert.NotEmpty(t, e.RequestID)
		})
	}
}

func TestValidate_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 64
	s := newTestServer(t, cfg, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader(sampleFile("null")))
	rec := do(s, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decodeError(t, rec).Code)
}

func TestValidate_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxConcurrent = 1
	s := newTestServer(t, cfg, nil)

	require.True(t, s.limiter.TryAcquire())
	defer s.limiter.Release()

	req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader(sampleFile("null")))
	rec := do(s, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Equal(t, "UPL001", decodeError(t, rec).Code)
}

func TestValidate_SaveFailure(t *testing.T) {
	st := newFakeStore()
	st.saveErr = errors.New("dial tcp 10.0.0.1:5432: connection refused")
	s := newTestServer(t, testConfig(), st)

	req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader(sampleFile("null")))
	rec := do(s, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "DB001", e.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1", "technical details stay in the log")
}

func TestReports(t *testing.T) {
	st := newFakeStore()
	s := newTestServer(t, testConfig(), st)

	req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader(sampleFile("null")))
	created := decodeReport(t, do(s, req))

	t.Run("get", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/reports/"+created.ID.String(), nil))
		got := decodeReport(t, rec)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("list", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/reports?limit=10", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var list ReportList
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list.Reports, 1)
		assert.Equal(t, created.ID, list.Reports[0].ID)
	})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
	}{
		{name: "unknown id", target: "/api/reports/" + uuid.NewString(), wantStatus: http.StatusNotFound, wantCode: "RPT001"},
		{name: "bad id", target: "/api/reports/nope", wantStatus: http.StatusBadRequest, wantCode: "REQ003"},
		{name: "bad limit", target: "/api/reports?limit=0", wantStatus: http.StatusBadRequest, wantCode: "REQ004"},
		{name: "limit not a number", target: "/api/reports?limit=ten", wantStatus: http.StatusBadRequest, wantCode: "REQ004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestReports_PersistenceDisabled(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	for _, target := range []string{"/api/reports", "/api/reports/" + uuid.NewString()} {
		rec := do(s, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotImplemented, rec.Code, target)
		assert.Equal(t, "RPT002", decodeError(t, rec).Code, target)
	}
}

func TestErrorTypes(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	effective := func(query string) map[string]ErrorTypeInfo {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/error-types"+query, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var list []ErrorTypeInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, len(mztab.ErrorTypes()))
		out := make(map[string]ErrorTypeInfo, len(list))
		for _, info := range list {
			out[info.ID] = info
		}
		return out
	}

	id := mztab.LogicalSpectraRefLocation.ID()
	info := effective("")[id]
	assert.True(t, info.Downgradable)
	assert.Equal(t, mztab.LevelError, info.Effective)
	assert.Equal(t, mztab.CategoryLogical, info.Category)
	assert.NotEmpty(t, info.Template)

	assert.Equal(t, mztab.LevelWarn, effective("?level=warn")[id].Effective)
	assert.Equal(t, mztab.LevelError, effective("?level=warn")[mztab.FormatSpectraRef.ID()].Effective)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/error-types?level=loud", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSections(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/sections", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []SectionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, len(mztab.Sections()))

	markers := map[string]string{}
	for _, si := range list {
		markers[si.HeaderMarker] = si.DataMarker
		assert.NotEmpty(t, si.Columns, si.Name)
	}
	assert.Equal(t, "PSM", markers["PSH"])
	assert.Equal(t, "PRT", markers["PRH"])
}

func TestHealth(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		s := newTestServer(t, testConfig(), nil)
		rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","database":"disabled"}`, rec.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		st := newFakeStore()
		st.pingErr = errors.New("connection refused")
		s := newTestServer(t, testConfig(), st)
		rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"unavailable","database":"unreachable"}`, rec.Body.String())
	})
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"k1", "k2"}
	s := newTestServer(t, cfg, nil)

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "wrong", header: "X-API-Key", value: "nope", wantStatus: http.StatusForbidden},
		{name: "header", header: "X-API-Key", value: "k2", wantStatus: http.StatusOK},
		{name: "bearer", header: "Authorization", value: "Bearer k1", wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			assert.Equal(t, tt.wantStatus, do(s, req).Code)
		})
	}

	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health is not behind the API key")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = 2
	s := newTestServer(t, cfg, nil)

	for i := 0; i < 2; i++ {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)

	other := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	other.RemoteAddr = "198.51.100.7:4000"
	assert.Equal(t, http.StatusOK, do(s, other).Code, "limits are per client")
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	require.True(t, s.limiter.TryAcquire())
	defer s.limiter.Release()

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status LimiterStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, LimiterStatus{Active: 1, Available: 1, MaxConcurrent: 2}, status)
}
