// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fixedfield reads numeric values from fixed-width, multi-line
// text blocks. Values are located by column position, never by
// delimiter, because legacy producers let adjacent fields abut.
package fixedfield

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/openadas/internal/errors"
)

// Layout describes how values are packed on a line. Field k occupies
// columns [k*Width, (k+1)*Width); the first Skip columns of every field
// are a separator and are not parsed.
type Layout struct {
	PerLine int
	Width   int
	Skip    int
	// Strict requires separator columns and the text after the last
	// value on a line to be blank, so a line shifted by one column is
	// rejected instead of misread.
	Strict bool
}

// Field returns the text of field k on line, clamped to the line length.
// ok is false when the field starts beyond the end of the line.
func (l Layout) Field(line string, k int) (field string, ok bool) {
	start := k*l.Width + l.Skip
	if start >= len(line) {
		return "", false
	}
	end := (k + 1) * l.Width
	if end > len(line) {
		end = len(line)
	}
	return line[start:end], true
}

// exponent replaces the Fortran double-precision exponent marker.
var exponent = strings.NewReplacer("D", "E", "d", "E")

// ParseFloat parses a single fixed-field value.
func ParseFloat(field string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(exponent.Replace(field)), 64)
}

// ParseInt parses a single fixed-field integer.
func ParseInt(field string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(field))
}

// Reader walks the lines of a source file. The decoders use it both for
// fixed-field value blocks and for the header lines between them.
type Reader struct {
	source string
	lines  []string
	next   int
}

// NewReader reads every line of r. source names the file in error messages.
func NewReader(r io.Reader, source string) (*Reader, error) {
	lines, err := ReadLines(r, source)
	if err != nil {
		return nil, err
	}
	return &Reader{source: source, lines: lines}, nil
}

// ReadLines splits r into lines with trailing carriage returns removed.
func ReadLines(r io.Reader, source string) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", source)
	}
	return lines, nil
}

// FromLines wraps lines that were already split.
func FromLines(lines []string, source string) *Reader {
	return &Reader{source: source, lines: lines}
}

// Source returns the name given at construction.
func (r *Reader) Source() string { return r.source }

// LineNo returns the 1-based number of the line the next call to Line returns.
func (r *Reader) LineNo() int { return r.next + 1 }

// Pos returns the 0-based index of the next line.
func (r *Reader) Pos() int { return r.next }

// Seek moves to the 0-based line index i.
func (r *Reader) Seek(i int) {
	if i < 0 {
		i = 0
	}
	if i > len(r.lines) {
		i = len(r.lines)
	}
	r.next = i
}

// Done reports whether every line has been consumed.
func (r *Reader) Done() bool { return r.next >= len(r.lines) }

// Line consumes and returns the next line.
func (r *Reader) Line() (string, error) {
	if r.Done() {
		return "", errors.Malformedf("%s: unexpected end of file after line %d", r.source, len(r.lines))
	}
	line := r.lines[r.next]
	r.next++
	return line, nil
}

// Peek returns the next line without consuming it.
func (r *Reader) Peek() (string, bool) {
	if r.Done() {
		return "", false
	}
	return r.lines[r.next], true
}

// Skip consumes n lines.
func (r *Reader) Skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := r.Line(); err != nil {
			return err
		}
	}
	return nil
}

// Floats reads exactly n values laid out per l, starting on a fresh line
// and consuming whole lines.
func (r *Reader) Floats(n int, l Layout) ([]float64, error) {
	if err := r.fits(n, l); err != nil {
		return nil, err
	}
	values := make([]float64, 0, n)
	err := r.fields(n, l, func(field string, lineNo int) error {
		v, err := ParseFloat(field)
		if err != nil {
			return errors.Malformedf("%s:%d: value %d: cannot parse %q as float", r.source, lineNo, len(values)+1, field)
		}
		values = append(values, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Ints reads exactly n integers laid out per l.
func (r *Reader) Ints(n int, l Layout) ([]int, error) {
	if err := r.fits(n, l); err != nil {
		return nil, err
	}
	values := make([]int, 0, n)
	err := r.fields(n, l, func(field string, lineNo int) error {
		v, err := ParseInt(field)
		if err != nil {
			return errors.Malformedf("%s:%d: value %d: cannot parse %q as integer", r.source, lineNo, len(values)+1, field)
		}
		values = append(values, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Slots reads a block of slots values laid out per l and returns the
// first n. Unused trailing slots may be blank and are not parsed.
func (r *Reader) Slots(n, slots int, l Layout) ([]float64, error) {
	if n > slots {
		return nil, errors.Malformedf("%s:%d: %d values declared but the block holds %d", r.source, r.LineNo(), n, slots)
	}
	lines := (slots + l.PerLine - 1) / l.PerLine
	start := r.next
	values, err := r.Floats(n, l)
	if err != nil {
		return nil, err
	}
	r.next = start
	if err := r.Skip(lines); err != nil {
		return nil, err
	}
	return values, nil
}

// fits rejects a count that the remaining lines cannot hold, before
// anything is allocated for it.
func (r *Reader) fits(n int, l Layout) error {
	if l.PerLine <= 0 || l.Width <= l.Skip {
		return errors.Newf("invalid fixed-field layout %+v", l)
	}
	remaining := len(r.lines) - r.next
	if n < 0 || n/l.PerLine > remaining || n > remaining*l.PerLine {
		return errors.Malformedf("%s:%d: %d values declared but only %d lines remain", r.source, r.LineNo(), n, remaining)
	}
	return nil
}

func (r *Reader) fields(n int, l Layout, parse func(field string, lineNo int) error) error {
	read := 0
	for read < n {
		lineNo := r.LineNo()
		line, err := r.Line()
		if err != nil {
			return errors.Wrapf(err, "reading %d values, got %d", n, read)
		}
		k := 0
		for ; k < l.PerLine && read < n; k++ {
			field, ok := l.Field(line, k)
			if !ok {
				return errors.Malformedf("%s:%d: line exhausted at value %d of %d", r.source, lineNo, read+1, n)
			}
			if err := parse(field, lineNo); err != nil {
				return err
			}
			read++
		}
		if l.Strict && !l.aligned(line, k) {
			return errors.Malformedf("%s:%d: values are not aligned to %d-column fields", r.source, lineNo, l.Width)
		}
	}
	return nil
}

// aligned reports whether the separators of the first used fields and
// everything after them on line are blank.
func (l Layout) aligned(line string, used int) bool {
	for k := 0; k < used; k++ {
		if strings.TrimSpace(Column(line, k*l.Width, k*l.Width+l.Skip)) != "" {
			return false
		}
	}
	return strings.TrimSpace(Column(line, used*l.Width, -1)) == ""
}

// Column returns line[from:to] clamped to the line length.
func Column(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) || to < 0 {
		to = len(line)
	}
	return line[from:to]
}
