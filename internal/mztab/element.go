package mztab

import (
	"fmt"
	"regexp"
	"strconv"
)

// EntityKind names a family of indexed metadata elements.
type EntityKind string

const (
	KindMsRun                          EntityKind = "ms_run"
	KindAssay                          EntityKind = "assay"
	KindStudyVariable                  EntityKind = "study_variable"
	KindSample                         EntityKind = "sample"
	KindProteinSearchEngineScore       EntityKind = "protein_search_engine_score"
	KindPeptideSearchEngineScore       EntityKind = "peptide_search_engine_score"
	KindPSMSearchEngineScore           EntityKind = "psm_search_engine_score"
	KindSmallMoleculeSearchEngineScore EntityKind = "smallmolecule_search_engine_score"
)

// elementRefRegex matches the textual form kind[index].
var elementRefRegex = regexp.MustCompile(`^([A-Za-z][A-Za-z_]*)\[(\d+)\]$`)

// IndexedElement identifies one metadata element by kind and 1-based index.
// It is a comparable value and safe to use as a map key.
type IndexedElement struct {
	Kind  EntityKind
	Index int
}

// NewIndexedElement returns the element kind[index].
// Returns ErrInvalidArgument if kind is empty or index is not positive.
func NewIndexedElement(kind EntityKind, index int) (IndexedElement, error) {
	if kind == "" {
		return IndexedElement{}, fmt.Errorf("%w: element kind is empty", ErrInvalidArgument)
	}
	if index < 1 {
		return IndexedElement{}, fmt.Errorf("%w: element index %d must be positive", ErrInvalidArgument, index)
	}
	return IndexedElement{Kind: kind, Index: index}, nil
}

// Reference returns the element reference used throughout mzTab, e.g. "ms_run[2]".
func (e IndexedElement) Reference() string {
	return string(e.Kind) + "[" + strconv.Itoa(e.Index) + "]"
}

// String implements fmt.Stringer.
func (e IndexedElement) String() string {
	return e.Reference()
}

// ParseElementReference parses "kind[index]" back into an IndexedElement.
func ParseElementReference(s string) (IndexedElement, error) {
	m := elementRefRegex.FindStringSubmatch(s)
	if m == nil {
		return IndexedElement{}, fmt.Errorf("%w: %q is not an element reference", ErrInvalidArgument, s)
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return IndexedElement{}, fmt.Errorf("%w: %q: %v", ErrInvalidArgument, s, err)
	}
	return NewIndexedElement(EntityKind(m[1]), idx)
}
