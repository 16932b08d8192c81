package mztab

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	indexedHeaderRegex = regexp.MustCompile(`^([A-Za-z_]+)\[([^\]]*)\]$`)
	optHeaderRegex     = regexp.MustCompile(`^opt_(global|([A-Za-z][A-Za-z_]*)\[(\d+)\])_(.+)$`)
)

// HeaderLineParser reads the header line of one section and produces its
// column schema and position mapping. Problems with individual tokens are
// recorded on the error list and parsing continues with the next token.
type HeaderLineParser struct {
	section  Section
	info     SectionInfo
	resolver EntityResolver
	errs     *ErrorList
}

// NewHeaderLineParser returns a parser for section. resolver may be nil, in
// which case element references are not checked.
func NewHeaderLineParser(section Section, resolver EntityResolver, errs *ErrorList) *HeaderLineParser {
	return &HeaderLineParser{
		section:  section,
		info:     section.Info(),
		resolver: resolver,
		errs:     errs,
	}
}

// Parse parses the header line found at lineNumber. It returns the schema,
// the mapping and the findings recorded by this call.
//
// Parse fails with ErrSectionMarker when the line does not start with the
// section's header marker, with ErrNoMandatoryColumns when none of the
// required columns is present, and with ErrTooManyErrors when the error list
// is full.
func (p *HeaderLineParser) Parse(lineNumber int, line string) (*ColumnFactory, *PositionMapping, []*Error, error) {
	tokens := splitLine(line)
	if tokens[0] != p.info.HeaderMarker {
		return nil, nil, nil, fmt.Errorf("%w: line %d starts with %q, want %q",
			ErrSectionMarker, lineNumber, tokens[0], p.info.HeaderMarker)
	}

	var found []*Error
	record := func(e *Error) error {
		if err := p.errs.Add(e); err != nil {
			return err
		}
		found = append(found, e)
		return nil
	}

	f := NewColumnFactory(p.section)
	seen := make(map[string]int, len(tokens))
	for i := 1; i < len(tokens); i++ {
		token := tokens[i]
		e, err := p.resolve(f, lineNumber, token)
		if err != nil {
			return nil, nil, found, err
		}
		if e != nil {
			if err := record(e); err != nil {
				return nil, nil, found, err
			}
			if e.Type.Category == CategoryFormat {
				continue
			}
		}
		if _, dup := seen[token]; dup {
			if err := record(NewError(LogicalDuplicateColumn, lineNumber, token, token, i)); err != nil {
				return nil, nil, found, err
			}
		}
		seen[token] = i
	}

	missing := f.missingRequired()
	if len(missing) == p.requiredCount() {
		return nil, nil, found, fmt.Errorf("%w: %s header at line %d", ErrNoMandatoryColumns, p.info.Name, lineNumber)
	}
	for _, cs := range missing {
		if err := record(NewError(FormatMissingColumn, lineNumber, "", requiredLabel(cs), p.info.Name)); err != nil {
			return nil, nil, found, err
		}
	}

	m, _, _ := mapTokens(f, tokens)
	return f, m, found, nil
}

// resolve adds the column named by token to f. It returns the finding to
// record, if any; a Format finding means the token was not added.
func (p *HeaderLineParser) resolve(f *ColumnFactory, lineNumber int, token string) (*Error, error) {
	if cs, _, ok := p.info.spec(token); ok && !cs.Indexed {
		_, err := f.AddFixedColumn(token)
		return nil, err
	}

	if strings.HasPrefix(token, OptPrefix+"_") {
		return p.resolveOptional(f, lineNumber, token)
	}

	if m := indexedHeaderRegex.FindStringSubmatch(token); m != nil {
		cs, _, ok := p.info.spec(m[1])
		if ok && cs.Indexed {
			return p.resolveIndexed(f, lineNumber, token, cs, m[2])
		}
	}

	return NewError(FormatUnrecognizedColumn, lineNumber, token, token, p.info.Name), nil
}

func (p *HeaderLineParser) resolveIndexed(f *ColumnFactory, lineNumber int, token string, cs ColumnSpec, rawIndex string) (*Error, error) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil || index < 1 {
		return NewError(FormatIndexedColumn, lineNumber, token, token, cs.Name), nil
	}
	if _, err := f.AddIndexedColumn(cs.Name, index); err != nil {
		return nil, err
	}
	if cs.IndexKind == "" || p.resolver == nil {
		return nil, nil
	}
	if _, ok := p.resolver.Resolve(cs.IndexKind, index); ok {
		return nil, nil
	}
	// Score columns are only checked once the file declares its scores.
	if isScoreKind(cs.IndexKind) && len(p.resolver.Elements(cs.IndexKind)) == 0 {
		return nil, nil
	}
	ref := IndexedElement{Kind: cs.IndexKind, Index: index}
	return NewError(LogicalElementNotDefined, lineNumber, token, token, ref.Reference()), nil
}

func (p *HeaderLineParser) resolveOptional(f *ColumnFactory, lineNumber int, token string) (*Error, error) {
	m := optHeaderRegex.FindStringSubmatch(token)
	if m == nil {
		return NewError(FormatOptionalColumn, lineNumber, token, token), nil
	}

	var el *IndexedElement
	if m[1] != OptGlobal {
		index, err := strconv.Atoi(m[3])
		if err != nil || index < 1 {
			return NewError(FormatOptionalColumn, lineNumber, token, token), nil
		}
		el = &IndexedElement{Kind: EntityKind(m[2]), Index: index}
	}

	name := m[4]
	if header, err := OptionColumnHeader(el, name); err != nil || header != token {
		return NewError(FormatOptionalColumn, lineNumber, token, token), nil
	}
	if _, err := f.AddOptionalColumn(el, name, TypeString); err != nil {
		return nil, err
	}

	if el != nil && p.resolver != nil {
		if _, ok := p.resolver.Resolve(el.Kind, el.Index); !ok {
			return NewError(LogicalElementNotDefined, lineNumber, token, token, el.Reference()), nil
		}
	}
	return nil, nil
}

func (p *HeaderLineParser) requiredCount() int {
	n := 0
	for _, cs := range p.info.Columns {
		if cs.Required {
			n++
		}
	}
	return n
}

func isScoreKind(k EntityKind) bool {
	switch k {
	case KindProteinSearchEngineScore, KindPeptideSearchEngineScore,
		KindPSMSearchEngineScore, KindSmallMoleculeSearchEngineScore:
		return true
	}
	return false
}
