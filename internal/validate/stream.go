package validate

// stream.go prepares an uploaded file for line-by-line parsing without
// loading it into memory:
//
//   - bomReader drops a leading UTF-8 BOM written by some spreadsheet tools
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - CountingReader tracks bytes read for progress reporting
//
// NewLineSource applies all three and hands lines out with their 1-based
// line numbers.

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxLineBytes bounds a single line. Protein sections with long
// ambiguity_members lists can exceed bufio's default of 64 KiB.
var MaxLineBytes = 16 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type bomReader struct {
	r       *bufio.Reader
	checked bool
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{r: bufio.NewReader(r)}
}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, _ := b.r.Peek(len(utf8BOM))
		if bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// utf8Sanitizer rewrites invalid bytes in place. A multi-byte sequence split
// across reads is carried over to the next read.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	w := 0
	for r := 0; r < len(data); {
		c := data[r]
		if c < utf8.RuneSelf {
			data[w] = c
			w++
			r++
			continue
		}
		if !atEOF && !utf8.FullRune(data[r:]) {
			s.pending = append(s.pending, data[r:]...)
			return w
		}
		ru, size := utf8.DecodeRune(data[r:])
		if ru == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			r++
			continue
		}
		copy(data[w:], data[r:r+size])
		w += size
		r += size
	}
	return w
}

// CountingReader counts the bytes read through it.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
	Total     int64 // 0 when unknown
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// Progress returns the percentage read, or 0 when the total is unknown.
func (c *CountingReader) Progress() int {
	if c.Total <= 0 {
		return 0
	}
	return int(c.BytesRead * 100 / c.Total)
}

// LineSource yields the lines of an mzTab file with their line numbers.
type LineSource struct {
	counter *CountingReader
	scanner *bufio.Scanner
	line    int
}

// NewLineSource wraps r. The BOM is stripped before sanitizing so that it is
// never mistaken for text.
func NewLineSource(r io.Reader, total int64) *LineSource {
	counter := &CountingReader{r: newUTF8Sanitizer(newBOMReader(r)), Total: total}
	scanner := bufio.NewScanner(counter)
	scanner.Buffer(make([]byte, 0, min(64*1024, MaxLineBytes)), MaxLineBytes)
	return &LineSource{counter: counter, scanner: scanner}
}

// Next returns the next line without its line break. ok is false at the end
// of input or on a read error; see Err.
func (s *LineSource) Next() (lineNumber int, line string, ok bool) {
	if !s.scanner.Scan() {
		return s.line, "", false
	}
	s.line++
	return s.line, strings.TrimRight(s.scanner.Text(), "\r"), true
}

// Err returns the first read error, including lines longer than MaxLineBytes.
func (s *LineSource) Err() error {
	return s.scanner.Err()
}

// BytesRead returns the number of bytes consumed so far.
func (s *LineSource) BytesRead() int64 {
	return s.counter.BytesRead
}

// Progress returns the percentage of the input consumed.
func (s *LineSource) Progress() int {
	return s.counter.Progress()
}
