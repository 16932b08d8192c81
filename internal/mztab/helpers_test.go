package mztab

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// psmHeaders lists the required PSM columns in catalog order.
var psmHeaders = []string{
	"sequence", "PSM_ID", "accession", "unique", "database", "database_version",
	"search_engine", "search_engine_score[1]", "modifications", "retention_time",
	"charge", "exp_mass_to_charge", "calc_mass_to_charge", "spectra_ref",
	"pre", "post", "start", "end",
}

// psmCells is a valid PSM data row keyed by header.
var psmCells = map[string]string{
	"sequence":               "KVPQVSTPTLVEVSR",
	"PSM_ID":                 "1",
	"accession":              "P02768",
	"unique":                 "1",
	"database":               "UniProtKB",
	"database_version":       "2013_08",
	"search_engine":          "[MS, MS:1001207, Mascot, ]",
	"search_engine_score[1]": "0.4",
	"modifications":          "null",
	"retention_time":         "1.3|2.4",
	"charge":                 "2",
	"exp_mass_to_charge":     "1034.2",
	"calc_mass_to_charge":    "1034.1",
	"spectra_ref":            "ms_run[1]:index=5",
	"pre":                    "K",
	"post":                   "D",
	"start":                  "45",
	"end":                    "57",
	"opt_global_note":        "checked",
}

// newTestMetadata declares ms_run[1] and ms_run[2] with locations and one
// PSM search engine score.
func newTestMetadata(t *testing.T) *Metadata {
	t.Helper()
	md := NewMetadata()
	_, err := md.AddMsRun(1, "file:///data/run1.mzML")
	require.NoError(t, err)
	_, err = md.AddMsRun(2, "file:///data/run2.mzML")
	require.NoError(t, err)
	_, err = md.Add(KindPSMSearchEngineScore, 1)
	require.NoError(t, err)
	return md
}

// joinLine builds a tab-separated line of marker followed by tokens.
func joinLine(marker string, tokens []string) string {
	return marker + "\t" + strings.Join(tokens, "\t")
}

// dataLine renders the cells of headers from psmCells with overrides applied.
func dataLine(headers []string, overrides map[string]string) string {
	tokens := make([]string, len(headers))
	for i, h := range headers {
		v, ok := overrides[h]
		if !ok {
			v = psmCells[h]
		}
		tokens[i] = v
	}
	return joinLine("PSM", tokens)
}

// parsePSMHeader parses headers as a PSH line and fails the test on a
// structural error.
func parsePSMHeader(t *testing.T, md EntityResolver, errs *ErrorList, headers []string) (*ColumnFactory, *PositionMapping, []*Error) {
	t.Helper()
	f, m, found, err := NewHeaderLineParser(SectionPSM, md, errs).Parse(1, joinLine("PSH", headers))
	require.NoError(t, err)
	return f, m, found
}

func errorIDs(errs []*Error) []string {
	ids := make([]string, len(errs))
	for i, e := range errs {
		ids[i] = e.Type.ID()
	}
	return ids
}
