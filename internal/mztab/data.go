package mztab

import (
	"fmt"
)

// DataLineParser parses the data lines of one section against the schema and
// mapping produced by its header line. It carries the last line number seen
// and must not be shared between goroutines.
type DataLineParser struct {
	factory  *ColumnFactory
	mapping  *PositionMapping
	resolver EntityResolver
	errs     *ErrorList
	marker   string
	lastLine int
}

// NewDataLineParser returns a parser for the section described by f and m.
// resolver may be nil, in which case every spectra_ref run is unknown.
func NewDataLineParser(f *ColumnFactory, m *PositionMapping, resolver EntityResolver, errs *ErrorList) *DataLineParser {
	return &DataLineParser{
		factory:  f,
		mapping:  m,
		resolver: resolver,
		errs:     errs,
		marker:   f.Section().Info().DataMarker,
	}
}

// Parse converts the data line found at lineNumber into a Row. The row is
// returned even when findings were recorded; cells that failed validation
// are null. The returned findings are those of this call only.
func (p *DataLineParser) Parse(lineNumber int, line string) (*Row, []*Error, error) {
	if lineNumber < p.lastLine {
		return nil, nil, fmt.Errorf("%w: line %d after line %d", ErrLineOrder, lineNumber, p.lastLine)
	}
	p.lastLine = lineNumber

	var found []*Error
	record := func(e *Error) error {
		if err := p.errs.Add(e); err != nil {
			return err
		}
		found = append(found, e)
		return nil
	}

	tokens := splitLine(line)
	if tokens[0] != p.marker {
		if err := record(NewError(FormatLinePrefix, lineNumber, "", p.marker, tokens[0])); err != nil {
			return nil, found, err
		}
	}
	if len(tokens) > p.mapping.Width() {
		if err := record(NewError(FormatColumnCount, lineNumber, "", len(tokens), p.mapping.Width())); err != nil {
			return nil, found, err
		}
	}

	row := newRow(p.factory, lineNumber)
	for _, c := range p.factory.Columns() {
		i, ok := p.mapping.Physical(c.Position())
		if !ok || i >= len(tokens) {
			continue
		}
		raw := tokens[i]
		switch {
		case raw == "":
			if err := record(NewError(FormatEmptyCell, lineNumber, c.Header(), c.Header())); err != nil {
				return nil, found, err
			}
			continue
		case raw == Null:
			if c.NotNull() {
				if err := record(NewError(LogicalNotNull, lineNumber, c.Header(), c.Header())); err != nil {
					return nil, found, err
				}
			}
			continue
		}

		if c.Type() == TypeSpectraRef {
			refs, errs, err := p.CheckSpectraRef(lineNumber, c, raw)
			found = append(found, errs...)
			if err != nil {
				return nil, found, err
			}
			if refs != nil {
				row.values[c.Position()] = refs
			}
			continue
		}

		v, et := convertCell(c, raw)
		if et != nil {
			if err := record(NewError(et, lineNumber, c.Header(), raw, c.Header())); err != nil {
				return nil, found, err
			}
			continue
		}
		row.values[c.Position()] = v
	}
	return row, found, nil
}

// CheckSpectraRef validates a spectra_ref cell against the declared MS runs
// and returns its references together with the findings of this call.
//
// Every segment is checked. A malformed segment or one naming an undeclared
// run is a Format finding, and the cell then yields no references. A declared
// run without a location is a Logical finding whose level follows the error
// list threshold; the references are still returned.
func (p *DataLineParser) CheckSpectraRef(lineNumber int, c *Column, value string) ([]SpectraRef, []*Error, error) {
	var found []*Error
	record := func(e *Error) error {
		if err := p.errs.Add(e); err != nil {
			return err
		}
		found = append(found, e)
		return nil
	}

	var refs []SpectraRef
	malformed := false
	for _, seg := range splitSpectraRefs(value) {
		if !seg.ok {
			malformed = true
			if err := record(NewError(FormatSpectraRef, lineNumber, c.Header(),
				seg.raw, c.Header(), "should be ms_run[INDEX]:REFERENCE")); err != nil {
				return nil, found, err
			}
			continue
		}

		run := IndexedElement{Kind: KindMsRun, Index: seg.index}
		var entity *Entity
		ok := false
		if p.resolver != nil {
			entity, ok = p.resolver.Resolve(KindMsRun, seg.index)
		}
		if !ok {
			malformed = true
			if err := record(NewError(FormatSpectraRef, lineNumber, c.Header(),
				seg.raw, c.Header(), run.Reference()+" is not declared in metadata")); err != nil {
				return nil, found, err
			}
			continue
		}

		if _, has := entity.Attribute(AttrLocation); !has {
			if err := record(NewError(LogicalSpectraRefLocation, lineNumber, c.Header(),
				seg.raw, c.Header(), run.Reference())); err != nil {
				return nil, found, err
			}
		}
		refs = append(refs, SpectraRef{MsRun: run, Reference: seg.ref})
	}

	if malformed {
		return nil, found, nil
	}
	return refs, found, nil
}

// Row is one parsed data line. Cells that were absent, null or invalid hold
// no value.
type Row struct {
	factory    *ColumnFactory
	lineNumber int
	values     map[Position]any
}

func newRow(f *ColumnFactory, lineNumber int) *Row {
	return &Row{factory: f, lineNumber: lineNumber, values: make(map[Position]any, f.Len())}
}

// LineNumber returns the line the row was parsed from.
func (r *Row) LineNumber() int { return r.lineNumber }

// Section returns the section the row belongs to.
func (r *Row) Section() Section { return r.factory.Section() }

// Value returns the converted cell at pos, or false if the cell is null.
func (r *Row) Value(pos Position) (any, bool) {
	v, ok := r.values[pos]
	return v, ok
}

// ValueByHeader returns the converted cell of the column named header.
func (r *Row) ValueByHeader(header string) (any, bool) {
	c, ok := r.factory.FindByHeader(header)
	if !ok {
		return nil, false
	}
	return r.Value(c.Position())
}

// IsNull reports whether the cell at pos holds no value.
func (r *Row) IsNull(pos Position) bool {
	_, ok := r.values[pos]
	return !ok
}

// Values returns every column of the schema keyed by header. Null cells map
// to nil.
func (r *Row) Values() map[string]any {
	out := make(map[string]any, r.factory.Len())
	for _, c := range r.factory.Columns() {
		out[c.Header()] = r.values[c.Position()]
	}
	return out
}
