package mztab

import (
	"regexp"
	"strconv"
	"strings"
)

// Structural delimiters of composite cells.
const (
	Bar   = '|'
	Colon = ':'
)

var spectraRefRegex = regexp.MustCompile(`^ms_run\[(\d+)\]:(.+)$`)

// SpectraRef points at one spectrum of a declared MS run, e.g.
// ms_run[2]:index=9 or ms_run[1]:scan=1296.
type SpectraRef struct {
	MsRun     IndexedElement `json:"msRun"`
	Reference string         `json:"reference"`
}

// String renders the reference in mzTab notation.
func (r SpectraRef) String() string {
	return r.MsRun.Reference() + string(Colon) + r.Reference
}

// FormatSpectraRefs joins refs with '|'.
func FormatSpectraRefs(refs []SpectraRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, string(Bar))
}

// spectraRefSegment is one parsed segment. ok is false when the segment
// does not follow ms_run[n]:reference.
type spectraRefSegment struct {
	raw   string
	index int
	ref   string
	ok    bool
}

func splitSpectraRefs(value string) []spectraRefSegment {
	items := strings.Split(value, string(Bar))
	out := make([]spectraRefSegment, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		seg := spectraRefSegment{raw: item}
		if m := spectraRefRegex.FindStringSubmatch(item); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				seg.index, seg.ref, seg.ok = n, m[2], true
			}
		}
		out = append(out, seg)
	}
	return out
}
