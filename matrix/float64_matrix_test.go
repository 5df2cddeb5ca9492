package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestFloat64MatrixShape(t *testing.T) {
	m := NewFloat64Matrix(2, 3)

	r, c := m.Shape()

	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
}

func TestFloat64MatrixGet(t *testing.T) {
	m := NewFloat64Matrix(2, 3)

	val := 0.0
	for r := 0; r < 2; r += 1 {
		for c := 0; c < 3; c += 1 {
			m.Set(r, c, val)
			val += 1.0
		}
	}

	assert.Equal(t, 0.0, m.Get(0, 0))
	assert.Equal(t, 2.0, m.Get(0, 2))
	assert.Equal(t, 4.0, m.Get(1, 1))
	assert.Equal(t, []float64{3, 4, 5}, m.Row(1))
	assert.Equal(t, []float64{1, 4}, m.Col(1))
	assert.Equal(t, 5.0, m.ColSum(1))
	assert.Equal(t, 12.0, m.RowSum(1))
}

func TestFloat64MatrixBadShape(t *testing.T) {
	assert.PanicsWithValue(t, ErrBadShape, func() { NewFloat64Matrix(0, 3) })
	m := NewFloat64Matrix(1, 1)
	assert.PanicsWithValue(t, ErrIndexOutOfRange, func() { m.Get(1, 0) })
	assert.PanicsWithValue(t, ErrIndexOutOfRange, func() { m.Set(0, -1, 1) })
}

func TestFloat64MatrixAddAndZero(t *testing.T) {
	a := NewFloat64Matrix(2, 2)
	b := NewFloat64Matrix(2, 2)
	a.Incr(0, 1, 1.5)
	b.Incr(0, 1, 2.0)
	b.Incr(1, 0, 3.0)

	a.Add(b)
	assert.Equal(t, 3.5, a.Get(0, 1))
	assert.Equal(t, 3.0, a.Get(1, 0))

	clone := a.Clone()
	a.Zero()
	assert.Equal(t, 0.0, a.Get(0, 1))
	assert.Equal(t, 3.5, clone.Get(0, 1))

	assert.PanicsWithValue(t, ErrShapeMismatch, func() { a.Add(NewFloat64Matrix(1, 2)) })
}

func TestFloat64MatrixIsGonumMatrix(t *testing.T) {
	m := NewFloat64Matrix(2, 3)
	m.Set(1, 2, 7)

	dense := mat.DenseCopyOf(m)
	assert.Equal(t, 7.0, dense.At(1, 2))

	r, c := m.T().Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 7.0, m.T().At(2, 1))
}
