package mztab

import (
	"fmt"
	"sort"
	"strings"
)

// PositionMapping translates between the physical index of a cell in a
// header or data line (the section marker is index 0) and the logical
// position of its column. It is built once per header line and reused for
// every data line of the section.
type PositionMapping struct {
	toLogical  map[int]Position
	toPhysical map[Position]int
	width      int
}

// MappingEntry is one physical-to-logical pair.
type MappingEntry struct {
	Physical int
	Position Position
}

// MappingError reports why a header line could not be mapped.
type MappingError struct {
	Unmatched []string // physical tokens with no logical column
	Missing   []string // logical columns with no physical token
}

func (e *MappingError) Error() string {
	var parts []string
	if len(e.Unmatched) > 0 {
		parts = append(parts, "unmatched columns: "+strings.Join(e.Unmatched, ", "))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(e.Missing, ", "))
	}
	return "position mapping: " + strings.Join(parts, "; ")
}

// BuildPositionMapping maps every token of headerLine after the section
// marker onto a column of f. It fails with a *MappingError when a token has
// no column, or when a column of f or a required catalog column has no
// token. When a header appears twice the later occurrence wins.
func BuildPositionMapping(f *ColumnFactory, headerLine string) (*PositionMapping, error) {
	tokens := splitLine(headerLine)
	m, unmatched, _ := mapTokens(f, tokens)

	var missing []string
	for _, c := range f.Columns() {
		if _, ok := m.toPhysical[c.position]; !ok {
			missing = append(missing, c.header)
		}
	}
	for _, cs := range f.missingRequired() {
		missing = append(missing, requiredLabel(cs))
	}

	if len(unmatched) > 0 || len(missing) > 0 {
		return nil, &MappingError{Unmatched: unmatched, Missing: missing}
	}
	return m, nil
}

// mapTokens maps tokens[1:] onto f and reports tokens with no column and
// physical indexes overridden by a later duplicate.
func mapTokens(f *ColumnFactory, tokens []string) (*PositionMapping, []string, []int) {
	m := &PositionMapping{
		toLogical:  make(map[int]Position, len(tokens)),
		toPhysical: make(map[Position]int, len(tokens)),
		width:      len(tokens),
	}
	var unmatched []string
	var overridden []int
	for i := 1; i < len(tokens); i++ {
		c, ok := f.FindByHeader(tokens[i])
		if !ok {
			unmatched = append(unmatched, tokens[i])
			continue
		}
		if prev, dup := m.toPhysical[c.position]; dup {
			delete(m.toLogical, prev)
			overridden = append(overridden, prev)
		}
		m.toPhysical[c.position] = i
		m.toLogical[i] = c.position
	}
	return m, unmatched, overridden
}

// Physical returns the physical index of the column at p.
func (m *PositionMapping) Physical(p Position) (int, bool) {
	i, ok := m.toPhysical[p]
	return i, ok
}

// Logical returns the logical position of the cell at physical index i.
func (m *PositionMapping) Logical(i int) (Position, bool) {
	p, ok := m.toLogical[i]
	return p, ok
}

// Len returns the number of mapped columns.
func (m *PositionMapping) Len() int {
	return len(m.toLogical)
}

// Width returns the number of tokens of the header line, marker included.
func (m *PositionMapping) Width() int {
	return m.width
}

// Entries returns the mapping ordered by physical index.
func (m *PositionMapping) Entries() []MappingEntry {
	out := make([]MappingEntry, 0, len(m.toLogical))
	for i, p := range m.toLogical {
		out = append(out, MappingEntry{Physical: i, Position: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Physical < out[j].Physical })
	return out
}

// String renders the mapping as "1->01 2->02 ...".
func (m *PositionMapping) String() string {
	var b strings.Builder
	for i, e := range m.Entries() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d->%s", e.Physical, e.Position)
	}
	return b.String()
}

func requiredLabel(cs ColumnSpec) string {
	if cs.Indexed {
		return cs.Name + "[1-n]"
	}
	return cs.Name
}

// splitLine splits a line on tabs after dropping a trailing line break.
func splitLine(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	return strings.Split(line, "\t")
}
