package sstable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrBadHeader = errors.New("sstable: model corrupted, shape not found")
	ErrBadRow    = errors.New("sstable: model corrupted, wrong number of values")
)

// DefaultSeparator separates values on a line unless configured otherwise.
const DefaultSeparator = "\t"

// WriteMatrix serializes m column by column: a header line holding the
// number of columns and rows, then one line per column carrying that
// column's values top to bottom.
func WriteMatrix(w io.Writer, m mat.Matrix, sep string) error {
	if sep == "" {
		sep = DefaultSeparator
	}
	out := bufio.NewWriter(w)

	r, c := m.Dims()
	// write the matrix shape
	fmt.Fprintf(out, "%d%s%d\n", c, sep, r)

	for cidx := 0; cidx < c; cidx += 1 {
		for ridx := 0; ridx < r; ridx += 1 {
			if ridx > 0 {
				out.WriteString(sep)
			}
			out.WriteString(strconv.FormatFloat(m.At(ridx, cidx), 'g', -1, 64))
		}
		out.WriteByte('\n')
	}
	return out.Flush()
}

// ReadMatrix parses the layout written by WriteMatrix.
func ReadMatrix(r io.Reader, sep string) (*mat.Dense, error) {
	if sep == "" {
		sep = DefaultSeparator
	}

	var (
		lineIdx    int
		rows, cols int
		tmp        *mat.Dense
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024*1024)
	for scanner.Scan() {
		txt := scanner.Text()
		if lineIdx == 0 {
			shape := splitValues(txt, sep)
			if len(shape) != 2 {
				return nil, fmt.Errorf("%w: %q", ErrBadHeader, txt)
			}
			col, err := strconv.Atoi(shape[0])
			if err != nil {
				return nil, err
			}
			row, err := strconv.Atoi(shape[1])
			if err != nil {
				return nil, err
			}
			if row <= 0 || col <= 0 {
				return nil, fmt.Errorf("%w: %q", ErrBadHeader, txt)
			}
			rows, cols = row, col
			tmp = mat.NewDense(rows, cols, nil)
			lineIdx += 1
			continue
		}

		cidx := lineIdx - 1
		if cidx >= cols {
			log.Warningf("ignoring trailing data at line %d", lineIdx)
			break
		}
		values := splitValues(txt, sep)
		if len(values) != rows {
			return nil, fmt.Errorf("%w: line %d has %d values, want %d",
				ErrBadRow, lineIdx, len(values), rows)
		}
		for ridx, v := range values {
			val, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, err
			}
			tmp.Set(ridx, cidx, val)
		}
		lineIdx += 1
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if tmp == nil {
		return nil, ErrBadHeader
	}
	if lineIdx-1 != cols {
		return nil, fmt.Errorf("%w: got %d lines, want %d", ErrBadRow, lineIdx-1, cols)
	}
	return tmp, nil
}

// splitValues splits a line on sep and drops the empty trailing field
// left by writers that terminate every value with the separator.
func splitValues(line, sep string) []string {
	values := strings.Split(strings.TrimRight(line, "\r"), sep)
	if n := len(values); n > 0 && values[n-1] == "" {
		values = values[:n-1]
	}
	return values
}

// SaveMatrix writes m to the file fn.
func SaveMatrix(fn string, m mat.Matrix, sep string) error {
	out, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	if err := WriteMatrix(out, m, sep); err != nil {
		out.Close()
		return err
	}
	log.V(2).Infof("saved matrix to %s", fn)
	return out.Close()
}

// LoadMatrix reads a matrix previously written with SaveMatrix.
func LoadMatrix(fn string, sep string) (*mat.Dense, error) {
	file, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadMatrix(file, sep)
}
