// SPDX-License-Identifier: EPL-2.0

// Package dlm reads and writes numeric matrices as delimited text, one row
// per line. It is the exchange format with the cochlear model executable.
package dlm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrRaggedMatrix = errors.New("rows have different widths")
	ErrBadValue     = errors.New("malformed number")
	ErrEmpty        = errors.New("no rows")
)

const maxLine = 64 << 20

// Options controls the text layout. The zero value writes single spaces and
// reads any run of blanks as one separator.
type Options struct {
	// Delimiter between values. Empty means whitespace.
	Delimiter string
}

func (o Options) writeDelim() string {
	if o.Delimiter == "" {
		return " "
	}
	return o.Delimiter
}

func (o Options) split(line string) []string {
	if o.Delimiter == "" || strings.TrimSpace(o.Delimiter) == "" {
		return strings.Fields(line)
	}

	fields := strings.Split(line, o.Delimiter)
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}

	return fields
}

// Write writes m with one row per line using the shortest representation
// that parses back to the same float64.
func Write(w io.Writer, m mat.Matrix, opts Options) error {
	bw := bufio.NewWriter(w)
	delim := opts.writeDelim()

	rows, cols := m.Dims()
	buf := make([]byte, 0, 32*cols)

	for i := range rows {
		buf = buf[:0]
		for j := range cols {
			if j > 0 {
				buf = append(buf, delim...)
			}
			buf = strconv.AppendFloat(buf, m.At(i, j), 'g', -1, 64)
		}
		buf = append(buf, '\n')

		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// WriteFile creates path and writes m to it.
func WriteFile(path string, m mat.Matrix, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	if err := Write(f, m, opts); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// Read parses a delimited matrix. Blank lines are skipped.
func Read(r io.Reader, opts Options) (*mat.Dense, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var (
		data []float64
		cols int
		rows int
		line int
	)

	for sc.Scan() {
		line++

		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		fields := opts.split(text)
		if rows == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("%w: line %d has %d values, want %d", ErrRaggedMatrix, line, len(fields), cols)
		}

		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q", ErrBadValue, line, f)
			}
			data = append(data, v)
		}

		rows++
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	if rows == 0 || cols == 0 {
		return nil, ErrEmpty
	}

	return mat.NewDense(rows, cols, data), nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string, opts Options) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	defer f.Close()

	m, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return m, nil
}
