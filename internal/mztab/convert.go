package mztab

// convert.go turns cell text into typed values.
//
// Scalars are returned as pgtype values so parsed rows can be handed to a
// database writer unchanged:
//   - string, URI     -> pgtype.Text
//   - integer         -> pgtype.Int8
//   - double          -> pgtype.Float8 (INF, -INF and NaN included)
//   - boolean (0/1)   -> pgtype.Bool
//   - reliability     -> pgtype.Int2 (1, 2 or 3)
//
// Composite cells become Param, []Param, []string, []float64 or []SpectraRef.
// The literal "null" is handled by the caller and never reaches these
// functions.

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Literal cell values with special meaning.
const (
	Null         = "null"
	Infinity     = "INF"
	NegInfinity  = "-INF"
	CalculateErr = "NaN"
)

var errCell = errors.New("malformed cell")

// ToText converts s to pgtype.Text. Surrounding whitespace is kept out.
func ToText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToInt8 converts a base-10 integer.
func ToInt8(s string) (pgtype.Int8, bool) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return pgtype.Int8{Valid: false}, false
	}
	return pgtype.Int8{Int64: i, Valid: true}, true
}

// ToFloat8 converts a double. mzTab spells infinities INF/-INF and a failed
// calculation NaN; the Go spellings ("Inf", "+Inf") are rejected.
func ToFloat8(s string) (pgtype.Float8, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case Infinity:
		return pgtype.Float8{Float64: math.Inf(1), Valid: true}, true
	case NegInfinity:
		return pgtype.Float8{Float64: math.Inf(-1), Valid: true}, true
	case CalculateErr:
		return pgtype.Float8{Float64: math.NaN(), Valid: true}, true
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return pgtype.Float8{Valid: false}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return pgtype.Float8{Valid: false}, false
	}
	return pgtype.Float8{Float64: f, Valid: true}, true
}

// ToBool converts the mzTab boolean "0" or "1".
func ToBool(s string) (pgtype.Bool, bool) {
	switch strings.TrimSpace(s) {
	case "1":
		return pgtype.Bool{Bool: true, Valid: true}, true
	case "0":
		return pgtype.Bool{Bool: false, Valid: true}, true
	default:
		return pgtype.Bool{Valid: false}, false
	}
}

// ToReliability converts a reliability score of 1, 2 or 3.
func ToReliability(s string) (pgtype.Int2, bool) {
	switch strings.TrimSpace(s) {
	case "1":
		return pgtype.Int2{Int16: 1, Valid: true}, true
	case "2":
		return pgtype.Int2{Int16: 2, Valid: true}, true
	case "3":
		return pgtype.Int2{Int16: 3, Valid: true}, true
	default:
		return pgtype.Int2{Valid: false}, false
	}
}

// ToURI accepts absolute URIs only.
func ToURI(s string) (pgtype.Text, bool) {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return pgtype.Text{Valid: false}, false
	}
	return pgtype.Text{String: s, Valid: true}, true
}

// Param is a controlled-vocabulary parameter [cvLabel, accession, name, value].
type Param struct {
	CVLabel   string `json:"cvLabel"`
	Accession string `json:"accession"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}

// String renders the param in mzTab notation.
func (p Param) String() string {
	name := p.Name
	if strings.ContainsRune(name, ',') {
		name = `"` + name + `"`
	}
	return "[" + p.CVLabel + ", " + p.Accession + ", " + name + ", " + p.Value + "]"
}

// ParseParam parses [cvLabel, accession, name, value]. Names containing
// commas must be double-quoted. Label and accession may be empty only
// together (user params), the name must not be empty.
func ParseParam(s string) (Param, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return Param{}, errCell
	}
	parts, ok := splitQuoted(s[1:len(s)-1], ',')
	if !ok || len(parts) != 4 {
		return Param{}, errCell
	}
	p := Param{
		CVLabel:   parts[0],
		Accession: parts[1],
		Name:      strings.Trim(parts[2], `"`),
		Value:     strings.Trim(parts[3], `"`),
	}
	if p.Name == "" || (p.CVLabel == "") != (p.Accession == "") {
		return Param{}, errCell
	}
	return p, nil
}

// ParseParamList parses params separated by '|'.
func ParseParamList(s string) ([]Param, error) {
	items, ok := splitQuoted(s, '|')
	if !ok {
		return nil, errCell
	}
	out := make([]Param, 0, len(items))
	for _, item := range items {
		p, err := ParseParam(item)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ParseStringList splits s on sep and rejects empty items.
func ParseStringList(s string, sep rune) ([]string, error) {
	items := strings.Split(s, string(sep))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, errCell
		}
		out = append(out, item)
	}
	return out, nil
}

// ParseDoubleList parses doubles separated by sep.
func ParseDoubleList(s string, sep rune) ([]float64, error) {
	items, err := ParseStringList(s, sep)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, ok := ToFloat8(item)
		if !ok {
			return nil, errCell
		}
		out = append(out, f.Float64)
	}
	return out, nil
}

// splitQuoted splits s on sep outside double quotes and trims each part.
// It reports false on an unterminated quote.
func splitQuoted(s string, sep rune) ([]string, bool) {
	var parts []string
	var b strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			b.WriteRune(r)
		case r == sep && !quoted:
			parts = append(parts, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if quoted {
		return nil, false
	}
	parts = append(parts, strings.TrimSpace(b.String()))
	return parts, true
}

// convertCell converts raw according to the column type. Spectra references
// are handled by the data line parser because they need metadata.
func convertCell(c *Column, raw string) (any, *ErrorType) {
	switch c.Type() {
	case TypeString:
		return ToText(raw), nil
	case TypeInteger:
		if v, ok := ToInt8(raw); ok {
			return v, nil
		}
		return nil, FormatInteger
	case TypeDouble:
		if v, ok := ToFloat8(raw); ok {
			return v, nil
		}
		return nil, FormatDouble
	case TypeBoolean:
		if v, ok := ToBool(raw); ok {
			return v, nil
		}
		return nil, FormatBoolean
	case TypeReliability:
		if v, ok := ToReliability(raw); ok {
			return v, nil
		}
		return nil, FormatReliability
	case TypeURI:
		if v, ok := ToURI(raw); ok {
			return v, nil
		}
		return nil, FormatURI
	case TypeParam:
		if v, err := ParseParam(raw); err == nil {
			return v, nil
		}
		return nil, FormatParam
	case TypeParamList:
		if v, err := ParseParamList(raw); err == nil {
			return v, nil
		}
		return nil, FormatParamList
	case TypeStringList:
		if v, err := ParseStringList(raw, c.Separator()); err == nil {
			return v, nil
		}
		return nil, FormatList
	case TypeDoubleList:
		if v, err := ParseDoubleList(raw, c.Separator()); err == nil {
			return v, nil
		}
		return nil, FormatDouble
	default:
		return ToText(raw), nil
	}
}
