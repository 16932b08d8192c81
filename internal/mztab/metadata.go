package mztab

import (
	"sort"
)

// Well-known element attribute names.
const (
	AttrLocation    = "location"
	AttrFormat      = "format"
	AttrIDFormat    = "id_format"
	AttrMsRunRef    = "ms_run_ref"
	AttrSampleRef   = "sample_ref"
	AttrAssayRefs   = "assay_refs"
	AttrValue       = "value"
	AttrDescription = "description"
)

// EntityResolver is the read-only view of the metadata store used by the
// tabular parsers.
type EntityResolver interface {
	// Resolve returns the element kind[index], or false if it was never declared.
	Resolve(kind EntityKind, index int) (*Entity, bool)

	// Elements returns the declared elements of kind in index order.
	Elements(kind EntityKind) []IndexedElement
}

// Entity is one declared metadata element and its attributes.
// Missing attributes are a valid "unknown" state, not an error.
type Entity struct {
	element IndexedElement
	attrs   map[string]string
}

// Element returns the identity of the entity.
func (e *Entity) Element() IndexedElement {
	return e.element
}

// Attribute returns the named attribute, or false if it is absent.
func (e *Entity) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// Attributes returns a copy of all attributes.
func (e *Entity) Attributes() map[string]string {
	out := make(map[string]string, len(e.attrs))
	for k, v := range e.attrs {
		out[k] = v
	}
	return out
}

// Metadata holds the elements and properties declared in the MTD section.
// It is populated before any tabular section is parsed and only read afterwards.
type Metadata struct {
	entities   map[IndexedElement]*Entity
	properties map[string]string
}

// NewMetadata returns an empty metadata store.
func NewMetadata() *Metadata {
	return &Metadata{
		entities:   make(map[IndexedElement]*Entity),
		properties: make(map[string]string),
	}
}

// Add declares kind[index] and returns its entity.
// Declaring an element twice returns the existing entity.
func (m *Metadata) Add(kind EntityKind, index int) (*Entity, error) {
	el, err := NewIndexedElement(kind, index)
	if err != nil {
		return nil, err
	}
	if e, ok := m.entities[el]; ok {
		return e, nil
	}
	e := &Entity{element: el, attrs: make(map[string]string)}
	m.entities[el] = e
	return e, nil
}

// AddMsRun declares ms_run[index]. An empty location leaves the location
// attribute unknown.
func (m *Metadata) AddMsRun(index int, location string) (*Entity, error) {
	e, err := m.Add(KindMsRun, index)
	if err != nil {
		return nil, err
	}
	if location != "" {
		e.attrs[AttrLocation] = location
	}
	return e, nil
}

// SetAttribute sets an attribute on kind[index], declaring the element if needed.
func (m *Metadata) SetAttribute(kind EntityKind, index int, name, value string) error {
	e, err := m.Add(kind, index)
	if err != nil {
		return err
	}
	e.attrs[name] = value
	return nil
}

// Resolve implements EntityResolver.
func (m *Metadata) Resolve(kind EntityKind, index int) (*Entity, bool) {
	e, ok := m.entities[IndexedElement{Kind: kind, Index: index}]
	return e, ok
}

// Elements implements EntityResolver.
func (m *Metadata) Elements(kind EntityKind) []IndexedElement {
	var out []IndexedElement
	for el := range m.entities {
		if el.Kind == kind {
			out = append(out, el)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Len returns the number of declared elements.
func (m *Metadata) Len() int {
	return len(m.entities)
}

// SetProperty records a non-indexed metadata value such as mzTab-version.
func (m *Metadata) SetProperty(key, value string) {
	m.properties[key] = value
}

// Property returns a non-indexed metadata value.
func (m *Metadata) Property(key string) (string, bool) {
	v, ok := m.properties[key]
	return v, ok
}
