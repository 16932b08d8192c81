package mztab

// errors.go defines how findings are classified and collected.
//
// A finding is an *Error of a catalogued ErrorType. Types fall into two
// categories:
//  1. Format: the line does not have the expected shape (bad token, unknown
//     column, type conversion failure, malformed reference grammar)
//  2. Logical: the line is well formed but breaks a reference or invariant
//     (element not declared, declared element missing a required attribute)
//
// Each type has a default Level. Downgradable types are the borderline checks
// whose severity follows the ErrorList threshold: Error while the threshold
// is Error, Warn once the threshold is lowered to Warn or Info. The threshold
// never changes which checks fire.

import (
	"errors"
	"fmt"
	"strings"
)

// Structural errors returned as Go errors. Validation findings are never
// returned this way; they are appended to an ErrorList.
var (
	// ErrInvalidArgument is returned when a value cannot be constructed,
	// e.g. an optional column with an empty name.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTooManyErrors is returned once an ErrorList reaches its cap.
	ErrTooManyErrors = errors.New("too many validation errors")

	// ErrNoMandatoryColumns is returned when a header line resolves none of
	// its section's required columns.
	ErrNoMandatoryColumns = errors.New("no mandatory columns found in header")

	// ErrSectionMarker is returned when a header line does not start with
	// the marker of the section being parsed.
	ErrSectionMarker = errors.New("unexpected section marker")

	// ErrLineOrder is returned when line numbers decrease within a section.
	ErrLineOrder = errors.New("line numbers must not decrease")
)

// Level is the severity of a finding.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts "info", "warn"/"warning" or "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelError, fmt.Errorf("%w: unknown level %q", ErrInvalidArgument, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	level, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// Category separates grammar problems from reference problems.
type Category int

const (
	CategoryFormat Category = iota + 1
	CategoryLogical
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFormat:
		return "format"
	case CategoryLogical:
		return "logical"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	switch string(text) {
	case "format":
		*c = CategoryFormat
	case "logical":
		*c = CategoryLogical
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, text)
	}
	return nil
}

// ErrorType is one entry of the finding catalogue.
type ErrorType struct {
	Category Category
	Code     int
	Level    Level

	// Downgradable marks checks reported as Warn when the list threshold is
	// Warn or below.
	Downgradable bool

	// Title is a short stable name, e.g. "SpectraRef".
	Title string

	// template is a fmt format with positional verbs (%[1]s, %[2]s, ...).
	template string
}

// ID returns the code used in reports, e.g. "F1003" or "L2001".
func (t *ErrorType) ID() string {
	prefix := "F"
	if t.Category == CategoryLogical {
		prefix = "L"
	}
	return fmt.Sprintf("%s%d", prefix, t.Code)
}

// Template returns the message template.
func (t *ErrorType) Template() string {
	return t.template
}

// Format renders the message template with args.
func (t *ErrorType) Format(args ...any) string {
	return fmt.Sprintf(t.template, args...)
}

// String implements fmt.Stringer.
func (t *ErrorType) String() string {
	return t.Category.String() + "/" + t.Title + " (" + t.ID() + ")"
}

// Error is one recorded finding.
type Error struct {
	Type       *ErrorType
	Level      Level
	LineNumber int
	Column     string // header of the offending column, empty for line-level findings
	Message    string
}

// NewError builds a finding at the type's default level. ErrorList.Add
// resolves the final level against its threshold.
func NewError(t *ErrorType, lineNumber int, column string, args ...any) *Error {
	return &Error{
		Type:       t,
		Level:      t.Level,
		LineNumber: lineNumber,
		Column:     column,
		Message:    t.Format(args...),
	}
}

// Error implements the error interface so findings can be wrapped or logged.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s line %d", e.Level, e.Type.ID(), e.LineNumber)
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// ErrorList is the append-only, ordered record of findings for one parse.
// It is not safe for concurrent use.
type ErrorList struct {
	level  Level
	limit  int
	errors []*Error
}

// NewErrorList returns a list with the given threshold. limit > 0 caps the
// number of entries; Add returns ErrTooManyErrors once the cap is reached.
func NewErrorList(level Level, limit int) *ErrorList {
	return &ErrorList{level: level, limit: limit}
}

// Level returns the current threshold.
func (l *ErrorList) Level() Level {
	return l.level
}

// SetLevel changes the threshold used to classify downgradable findings.
// Entries already recorded keep the level they were added with.
func (l *ErrorList) SetLevel(level Level) {
	l.level = level
}

// Severity returns the level a finding of type t is recorded with under the
// current threshold.
func (l *ErrorList) Severity(t *ErrorType) Level {
	if t.Downgradable && l.level <= LevelWarn && t.Level > LevelWarn {
		return LevelWarn
	}
	return t.Level
}

// Add appends e, resolving its level against the threshold.
func (l *ErrorList) Add(e *Error) error {
	if l.limit > 0 && len(l.errors) >= l.limit {
		return fmt.Errorf("%w: limit %d reached at line %d", ErrTooManyErrors, l.limit, e.LineNumber)
	}
	e.Level = l.Severity(e.Type)
	l.errors = append(l.errors, e)
	return nil
}

// Len returns the number of recorded findings.
func (l *ErrorList) Len() int {
	return len(l.errors)
}

// At returns the i-th finding in insertion order.
func (l *ErrorList) At(i int) *Error {
	return l.errors[i]
}

// Last returns the most recent finding, or nil if the list is empty.
func (l *ErrorList) Last() *Error {
	if len(l.errors) == 0 {
		return nil
	}
	return l.errors[len(l.errors)-1]
}

// Errors returns a copy of all findings in insertion order.
func (l *ErrorList) Errors() []*Error {
	out := make([]*Error, len(l.errors))
	copy(out, l.errors)
	return out
}

// Clear removes every finding. The threshold and cap are kept.
func (l *ErrorList) Clear() {
	l.errors = nil
}

// Filter returns the findings for which keep returns true.
func (l *ErrorList) Filter(keep func(*Error) bool) []*Error {
	var out []*Error
	for _, e := range l.errors {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// ByCategory returns the findings of one category.
func (l *ErrorList) ByCategory(c Category) []*Error {
	return l.Filter(func(e *Error) bool { return e.Type.Category == c })
}

// ByLevel returns the findings recorded at exactly level.
func (l *ErrorList) ByLevel(level Level) []*Error {
	return l.Filter(func(e *Error) bool { return e.Level == level })
}

// Failed reports whether any finding was recorded at LevelError.
func (l *ErrorList) Failed() bool {
	for _, e := range l.errors {
		if e.Level == LevelError {
			return true
		}
	}
	return false
}

// Counts returns the number of findings per level.
func (l *ErrorList) Counts() map[Level]int {
	counts := make(map[Level]int, 3)
	for _, e := range l.errors {
		counts[e.Level]++
	}
	return counts
}
