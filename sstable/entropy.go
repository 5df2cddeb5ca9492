package sstable

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ColumnEntropy returns the base-2 entropy of every column of m, i.e. of
// every line WriteMatrix would emit for it.
func ColumnEntropy(m mat.Matrix) []float64 {
	r, c := m.Dims()
	entropy := make([]float64, c)
	column := make([]float64, r)
	for cidx := 0; cidx < c; cidx += 1 {
		for ridx := 0; ridx < r; ridx += 1 {
			column[ridx] = m.At(ridx, cidx)
		}
		e := stat.Entropy(column) / math.Ln2
		if e == 0 {
			// normalize -0 so reports print 0.000000
			e = 0
		}
		entropy[cidx] = e
	}
	return entropy
}

// WriteEntropy writes one column entropy per line.
func WriteEntropy(w io.Writer, m mat.Matrix) error {
	out := bufio.NewWriter(w)
	for _, e := range ColumnEntropy(m) {
		fmt.Fprintf(out, "%f\n", e)
	}
	return out.Flush()
}

// SaveEntropy writes the column entropies of m to fn.
func SaveEntropy(fn string, m mat.Matrix) error {
	out, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	if err := WriteEntropy(out, m); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
