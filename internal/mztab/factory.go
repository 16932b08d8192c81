package mztab

import (
	"fmt"
	"sort"
	"strconv"
)

// ColumnFactory owns the ordered column schema of one section instance.
//
// Fixed columns are added from the section catalog while the header line is
// read; optional columns are appended after them in discovery order. Adding
// an optional column never moves or renames an existing column.
type ColumnFactory struct {
	section    Section
	info       SectionInfo
	byPosition map[Position]*Column
	byHeader   map[string]*Column
	ordered    []*Column
	optionals  int
}

// NewColumnFactory returns an empty schema for section.
func NewColumnFactory(section Section) *ColumnFactory {
	return &ColumnFactory{
		section:    section,
		info:       section.Info(),
		byPosition: make(map[Position]*Column),
		byHeader:   make(map[string]*Column),
	}
}

// Section returns the section the schema belongs to.
func (f *ColumnFactory) Section() Section {
	return f.section
}

// FixedEnd returns the last ordinal reserved for fixed columns. Optional
// columns are positioned after it.
func (f *ColumnFactory) FixedEnd() int {
	return len(f.info.Columns)
}

// AddFixedColumn adds the catalog column name. Adding a column twice
// returns the existing column.
func (f *ColumnFactory) AddFixedColumn(name string) (*Column, error) {
	if c, ok := f.byHeader[name]; ok {
		return c, nil
	}
	cs, ordinal, ok := f.info.spec(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a %s column", ErrInvalidArgument, name, f.info.Name)
	}
	if cs.Indexed {
		return nil, fmt.Errorf("%w: %q needs an index", ErrInvalidArgument, name)
	}
	c, err := NewFixedColumn(name, cs.Type, Position{Ordinal: ordinal})
	if err != nil {
		return nil, err
	}
	c.notNull = cs.NotNull
	c.sep = cs.Sep
	f.insert(c)
	return c, nil
}

// AddIndexedColumn adds the instance name[index] of an indexed catalog column.
// When the catalog names an element kind, the column is bound to kind[index].
func (f *ColumnFactory) AddIndexedColumn(name string, index int) (*Column, error) {
	header := name + "[" + strconv.Itoa(index) + "]"
	if c, ok := f.byHeader[header]; ok {
		return c, nil
	}
	cs, ordinal, ok := f.info.spec(name)
	if !ok || !cs.Indexed {
		return nil, fmt.Errorf("%w: %q is not an indexed %s column", ErrInvalidArgument, name, f.info.Name)
	}
	if index < 1 {
		return nil, fmt.Errorf("%w: index %d of %q must be positive", ErrInvalidArgument, index, name)
	}
	var el *IndexedElement
	if cs.IndexKind != "" {
		el = &IndexedElement{Kind: cs.IndexKind, Index: index}
	}
	c, err := newElementColumn(header, cs.Type, Position{Ordinal: ordinal, Key: "[" + strconv.Itoa(index) + "]"}, el)
	if err != nil {
		return nil, err
	}
	c.notNull = cs.NotNull
	c.sep = cs.Sep
	f.insert(c)
	return c, nil
}

// AddOptionalColumn creates and appends opt_{element|global}_{name}.
// If a column with the same header exists it is returned unchanged.
func (f *ColumnFactory) AddOptionalColumn(element *IndexedElement, name string, typ ColumnType) (*Column, error) {
	header, err := OptionColumnHeader(element, name)
	if err != nil {
		return nil, err
	}
	if c, ok := f.byHeader[header]; ok {
		return c, nil
	}
	c, err := NewOptionColumn(element, name, typ, f.FixedEnd(), f.optionals+1)
	if err != nil {
		return nil, err
	}
	f.insert(c)
	f.optionals++
	return c, nil
}

// AppendOptionalColumn appends a column built with NewOptionColumn. The
// column must be optional, positioned after the fixed block and not collide
// with an existing header or position.
func (f *ColumnFactory) AppendOptionalColumn(c *Column) error {
	if c == nil || !c.optional {
		return fmt.Errorf("%w: only optional columns can be appended", ErrInvalidArgument)
	}
	if c.position.Ordinal <= f.FixedEnd() {
		return fmt.Errorf("%w: optional column %q positioned inside the fixed block", ErrInvalidArgument, c.header)
	}
	if _, ok := f.byHeader[c.header]; ok {
		return fmt.Errorf("%w: column %q already exists", ErrInvalidArgument, c.header)
	}
	if _, ok := f.byPosition[c.position]; ok {
		return fmt.Errorf("%w: position %s already taken", ErrInvalidArgument, c.position)
	}
	f.insert(c)
	if off := c.position.Ordinal - f.FixedEnd(); off > f.optionals {
		f.optionals = off
	}
	return nil
}

func (f *ColumnFactory) insert(c *Column) {
	f.byPosition[c.position] = c
	f.byHeader[c.header] = c
	i := sort.Search(len(f.ordered), func(i int) bool { return c.position.Less(f.ordered[i].position) })
	f.ordered = append(f.ordered, nil)
	copy(f.ordered[i+1:], f.ordered[i:])
	f.ordered[i] = c
}

// FindByHeader returns the column whose header is exactly header.
func (f *ColumnFactory) FindByHeader(header string) (*Column, bool) {
	c, ok := f.byHeader[header]
	return c, ok
}

// FindByPosition returns the column at a logical position.
func (f *ColumnFactory) FindByPosition(p Position) (*Column, bool) {
	c, ok := f.byPosition[p]
	return c, ok
}

// Columns returns all columns in logical order.
func (f *ColumnFactory) Columns() []*Column {
	out := make([]*Column, len(f.ordered))
	copy(out, f.ordered)
	return out
}

// OptionalColumns returns the optional columns in discovery order.
func (f *ColumnFactory) OptionalColumns() []*Column {
	var out []*Column
	for _, c := range f.ordered {
		if c.optional {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of columns.
func (f *ColumnFactory) Len() int {
	return len(f.ordered)
}

// missingRequired returns the required catalog columns with no instance in
// the schema. Indexed columns are satisfied by any instance.
func (f *ColumnFactory) missingRequired() []ColumnSpec {
	present := make(map[int]bool, len(f.ordered))
	for _, c := range f.ordered {
		if !c.optional {
			present[c.position.Ordinal] = true
		}
	}
	var missing []ColumnSpec
	for i, cs := range f.info.Columns {
		if cs.Required && !present[i+1] {
			missing = append(missing, cs)
		}
	}
	return missing
}
