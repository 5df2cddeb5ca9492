package matrix

import "gonum.org/v1/gonum/mat"

// internal Uint32 matrix representation
type Uint32Matrix struct {
	nrow int
	ncol int
	data []uint32
}

// NewUint32Matrix creates a new Uint32Matrix with r rows and c columns.
// if r or c is not positive, it will panic. A uint32 slice is used as the
// underlying storage and the data layout is in row major order, i.e. the
// (i*c + j)-th element in the data slice is the [i, j]-th element in the
// matrix.
func NewUint32Matrix(r, c int) *Uint32Matrix {
	if r <= 0 || c <= 0 {
		panic(ErrBadShape)
	}
	return &Uint32Matrix{
		nrow: r,
		ncol: c,
		data: make([]uint32, r*c),
	}
}

// get the shape of the matrix
func (m *Uint32Matrix) Shape() (int, int) {
	return m.nrow, m.ncol
}

// Dims implements mat.Matrix.
func (m *Uint32Matrix) Dims() (int, int) {
	return m.nrow, m.ncol
}

// At implements mat.Matrix.
func (m *Uint32Matrix) At(r, c int) float64 {
	return float64(m.Get(r, c))
}

// T implements mat.Matrix.
func (m *Uint32Matrix) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// get the [r, c]-th element of the matrix
func (m *Uint32Matrix) Get(r, c int) uint32 {
	if r < 0 || c < 0 || r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	return m.data[r*m.ncol+c]
}

// get the r-th row of the matrix, the returned slice is a copy
func (m *Uint32Matrix) GetRow(r int) []uint32 {
	if r < 0 || r >= m.nrow {
		panic(ErrIndexOutOfRange)
	}

	row := make([]uint32, m.ncol)
	copy(row, m.data[r*m.ncol:(r+1)*m.ncol])
	return row
}

// get the c-th column of the matrix
func (m *Uint32Matrix) GetCol(c int) []uint32 {
	if c < 0 || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}

	column := make([]uint32, m.nrow)
	for r := 0; r < m.nrow; r++ {
		column[r] = m.data[r*m.ncol+c]
	}
	return column
}

// set val to the [r, c]-th element of the matrix
func (m *Uint32Matrix) Set(r, c int, val uint32) {
	if r < 0 || c < 0 || r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	m.data[r*m.ncol+c] = val
}

// increment the [r, c]-th element of the matrix by val
func (m *Uint32Matrix) Incr(r, c int, val uint32) {
	if r < 0 || c < 0 || r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	m.data[r*m.ncol+c] += val
}

// decrement the [r, c]-th element of the matrix by val, counts never
// go below zero so an underflow is a caller bug
func (m *Uint32Matrix) Decr(r, c int, val uint32) {
	if r < 0 || c < 0 || r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	if m.data[r*m.ncol+c] < val {
		panic(ErrCountUnderflow)
	}
	m.data[r*m.ncol+c] -= val
}
