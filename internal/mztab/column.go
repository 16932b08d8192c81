package mztab

import (
	"fmt"
	"strings"
)

// Optional column header parts.
const (
	OptPrefix = "opt"
	OptGlobal = "global"
)

// ColumnType is the semantic type of a column's cells.
type ColumnType int

const (
	TypeUnspecified ColumnType = iota
	TypeString
	TypeInteger
	TypeDouble
	TypeBoolean
	TypeReliability
	TypeURI
	TypeParam
	TypeParamList
	TypeStringList
	TypeDoubleList
	TypeSpectraRef
)

var columnTypeNames = map[ColumnType]string{
	TypeUnspecified: "unspecified",
	TypeString:      "string",
	TypeInteger:     "integer",
	TypeDouble:      "double",
	TypeBoolean:     "boolean",
	TypeReliability: "reliability",
	TypeURI:         "uri",
	TypeParam:       "param",
	TypeParamList:   "param_list",
	TypeStringList:  "string_list",
	TypeDoubleList:  "double_list",
	TypeSpectraRef:  "spectra_ref",
}

// String returns the type name.
func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Position is the logical position of a column within its section.
// Ordinal orders columns; Key distinguishes the instances of an indexed
// column (search_engine_score[1], search_engine_score[2]) sharing an ordinal.
type Position struct {
	Ordinal int
	Key     string
}

// String renders the position as a two-digit ordinal followed by the key,
// e.g. "03" or "08[2]".
func (p Position) String() string {
	return fmt.Sprintf("%02d%s", p.Ordinal, p.Key)
}

// Less orders positions by ordinal, then by key length and text so that
// "[2]" sorts before "[10]".
func (p Position) Less(o Position) bool {
	if p.Ordinal != o.Ordinal {
		return p.Ordinal < o.Ordinal
	}
	if len(p.Key) != len(o.Key) {
		return len(p.Key) < len(o.Key)
	}
	return p.Key < o.Key
}

// Column is one typed, positioned element of a section schema.
// Columns are immutable once created.
type Column struct {
	position Position
	header   string
	typ      ColumnType
	optional bool
	element  *IndexedElement
	name     string
	notNull  bool
	sep      rune
}

// NewFixedColumn creates a column with a header fixed by the section catalog.
func NewFixedColumn(header string, typ ColumnType, position Position) (*Column, error) {
	if header == "" {
		return nil, fmt.Errorf("%w: fixed column header is empty", ErrInvalidArgument)
	}
	if strings.HasPrefix(header, OptPrefix+"_") {
		return nil, fmt.Errorf("%w: fixed column %q uses the optional prefix", ErrInvalidArgument, header)
	}
	if typ == TypeUnspecified {
		return nil, fmt.Errorf("%w: column %q has no type", ErrInvalidArgument, header)
	}
	return &Column{position: position, header: header, typ: typ}, nil
}

// newElementColumn creates a fixed column bound to an indexed element,
// e.g. search_engine_score[2] or protein_abundance_assay[1].
func newElementColumn(header string, typ ColumnType, position Position, el *IndexedElement) (*Column, error) {
	c, err := NewFixedColumn(header, typ, position)
	if err != nil {
		return nil, err
	}
	c.element = el
	return c, nil
}

// OptionColumnHeader returns the header of an optional column:
// opt_{element reference|global}_{name}, spaces in name replaced by '_'.
// A nil element denotes a column that applies to the whole file.
func OptionColumnHeader(element *IndexedElement, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: optional column name is empty", ErrInvalidArgument)
	}
	scope := OptGlobal
	if element != nil {
		scope = element.Reference()
	}
	return OptPrefix + "_" + scope + "_" + strings.ReplaceAll(name, " ", "_"), nil
}

// NewOptionColumn creates an optional column. offset is its 1-based order
// among the optional columns; the logical position is offset places past
// fixedEnd, the last fixed ordinal of the section.
func NewOptionColumn(element *IndexedElement, name string, typ ColumnType, fixedEnd, offset int) (*Column, error) {
	header, err := OptionColumnHeader(element, name)
	if err != nil {
		return nil, err
	}
	if typ == TypeUnspecified {
		return nil, fmt.Errorf("%w: optional column %q has no type", ErrInvalidArgument, header)
	}
	if offset < 1 {
		return nil, fmt.Errorf("%w: optional column offset %d must be positive", ErrInvalidArgument, offset)
	}
	return &Column{
		position: Position{Ordinal: fixedEnd + offset},
		header:   header,
		typ:      typ,
		optional: true,
		element:  element,
		name:     name,
	}, nil
}

// Header returns the header text of the column.
func (c *Column) Header() string { return c.header }

// Position returns the logical position.
func (c *Column) Position() Position { return c.position }

// Type returns the semantic type of the column's cells.
func (c *Column) Type() ColumnType { return c.typ }

// IsOptional reports whether the column is an opt_ column.
func (c *Column) IsOptional() bool { return c.optional }

// Element returns the owning element, or nil for global and unbound columns.
func (c *Column) Element() *IndexedElement { return c.element }

// Name returns the name given to an optional column, empty for fixed columns.
func (c *Column) Name() string { return c.name }

// NotNull reports whether the column rejects the "null" sentinel.
func (c *Column) NotNull() bool { return c.notNull }

// Separator returns the item separator of list-typed cells.
func (c *Column) Separator() rune {
	if c.sep == 0 {
		return '|'
	}
	return c.sep
}

// String implements fmt.Stringer.
func (c *Column) String() string {
	return c.position.String() + ":" + c.header
}
