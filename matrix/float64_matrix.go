package matrix

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Float64Matrix is a dense row major matrix of float64 values, used for
// probability tables and for the per worker accumulators of the EM
// trainers. The (i*c + j)-th element of data is the [i, j]-th element.
type Float64Matrix struct {
	nrow int
	ncol int
	data []float64
}

// NewFloat64Matrix creates a zero filled Float64Matrix with r rows and
// c columns. It panics if r or c is not positive.
func NewFloat64Matrix(r, c int) *Float64Matrix {
	if r <= 0 || c <= 0 {
		panic(ErrBadShape)
	}
	return &Float64Matrix{
		nrow: r,
		ncol: c,
		data: make([]float64, r*c),
	}
}

// get the shape of the matrix
func (m *Float64Matrix) Shape() (int, int) {
	return m.nrow, m.ncol
}

// Dims implements mat.Matrix.
func (m *Float64Matrix) Dims() (int, int) {
	return m.nrow, m.ncol
}

// At implements mat.Matrix.
func (m *Float64Matrix) At(r, c int) float64 {
	return m.Get(r, c)
}

// T implements mat.Matrix.
func (m *Float64Matrix) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// get the [r, c]-th element of the matrix
func (m *Float64Matrix) Get(r, c int) float64 {
	if r < 0 || c < 0 || r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	return m.data[r*m.ncol+c]
}

// set val to the [r, c]-th element of the matrix
func (m *Float64Matrix) Set(r, c int, val float64) {
	if r < 0 || c < 0 || r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	m.data[r*m.ncol+c] = val
}

// increment the [r, c]-th element of the matrix by val
func (m *Float64Matrix) Incr(r, c int, val float64) {
	if r < 0 || c < 0 || r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	m.data[r*m.ncol+c] += val
}

// Row returns the r-th row. The slice aliases the matrix storage, so
// writes through it are visible in the matrix.
func (m *Float64Matrix) Row(r int) []float64 {
	if r < 0 || r >= m.nrow {
		panic(ErrIndexOutOfRange)
	}
	return m.data[r*m.ncol : (r+1)*m.ncol : (r+1)*m.ncol]
}

// Col returns a copy of the c-th column.
func (m *Float64Matrix) Col(c int) []float64 {
	if c < 0 || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	column := make([]float64, m.nrow)
	for r := 0; r < m.nrow; r++ {
		column[r] = m.data[r*m.ncol+c]
	}
	return column
}

// ColSum returns the sum of the c-th column.
func (m *Float64Matrix) ColSum(c int) float64 {
	if c < 0 || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	sum := 0.0
	for r := 0; r < m.nrow; r++ {
		sum += m.data[r*m.ncol+c]
	}
	return sum
}

// RowSum returns the sum of the r-th row.
func (m *Float64Matrix) RowSum(r int) float64 {
	return floats.Sum(m.Row(r))
}

// Zero resets every element to 0 without reallocating.
func (m *Float64Matrix) Zero() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// Add adds other to m element-wise.
func (m *Float64Matrix) Add(other *Float64Matrix) {
	if m.nrow != other.nrow || m.ncol != other.ncol {
		panic(ErrShapeMismatch)
	}
	floats.Add(m.data, other.data)
}

// Clone returns a deep copy of the matrix.
func (m *Float64Matrix) Clone() *Float64Matrix {
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return &Float64Matrix{nrow: m.nrow, ncol: m.ncol, data: data}
}

// RawData exposes the row major backing slice.
func (m *Float64Matrix) RawData() []float64 {
	return m.data
}
