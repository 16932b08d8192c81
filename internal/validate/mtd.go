package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/mztab/internal/mztab"
)

// MetadataMarker starts every metadata line.
const MetadataMarker = "MTD"

// mtdKeyRegex matches indexed keys: ms_run[1]-location, assay[2]-sample_ref,
// psm_search_engine_score[1].
var mtdKeyRegex = regexp.MustCompile(`^([A-Za-z][A-Za-z_]*)\[(\d+)\](?:-(.+))?$`)

// metadataParser fills a Metadata store from MTD lines.
type metadataParser struct {
	md   *mztab.Metadata
	errs *mztab.ErrorList
	seen map[string]int
}

func newMetadataParser(md *mztab.Metadata, errs *mztab.ErrorList) *metadataParser {
	return &metadataParser{md: md, errs: errs, seen: make(map[string]int)}
}

// Parse records one MTD line. Indexed keys declare elements and set their
// attributes; other keys become properties. A key without an attribute sets
// the element's value attribute.
func (p *metadataParser) Parse(lineNumber int, line string) error {
	tokens := strings.Split(line, "\t")
	if len(tokens) < 3 || tokens[0] != MetadataMarker || strings.TrimSpace(tokens[1]) == "" {
		return p.errs.Add(mztab.NewError(mztab.FormatMetadataLine, lineNumber, "", line))
	}
	key := strings.TrimSpace(tokens[1])
	value := strings.TrimSpace(strings.Join(tokens[2:], "\t"))

	if _, dup := p.seen[key]; dup {
		if err := p.errs.Add(mztab.NewError(mztab.LogicalDuplicateMetadata, lineNumber, "", key)); err != nil {
			return err
		}
	}
	p.seen[key] = lineNumber

	m := mtdKeyRegex.FindStringSubmatch(key)
	if m == nil {
		p.md.SetProperty(key, value)
		return nil
	}
	index, err := strconv.Atoi(m[2])
	if err != nil || index < 1 {
		return p.errs.Add(mztab.NewError(mztab.FormatMetadataLine, lineNumber, "", line))
	}
	attr := m[3]
	if attr == "" {
		attr = mztab.AttrValue
	}
	if value == mztab.Null {
		_, err := p.md.Add(mztab.EntityKind(m[1]), index)
		return err
	}
	return p.md.SetAttribute(mztab.EntityKind(m[1]), index, attr, value)
}
