package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorSum(t *testing.T) {
	v := []uint32{3, 4, 5}
	assert.Equal(t, uint32(12), VectorSum(v))
}

func TestTopK(t *testing.T) {
	scores := []float64{0.1, 0.5, 0.2, 0.5, 0.0}

	assert.Equal(t, []int{1, 3, 2}, TopK(scores, 3))
	assert.Equal(t, []int{1, 3, 2, 0, 4}, TopK(scores, 10))
	assert.Empty(t, TopK(scores, 0))
}

func TestNumWorkers(t *testing.T) {
	assert.Equal(t, 3, NumWorkers(3))
	assert.GreaterOrEqual(t, NumWorkers(0), 1)
}

func TestNewRandDeterministic(t *testing.T) {
	a := NewRand(false, 7)
	b := NewRand(false, 7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
}
