package matrix

import "gonum.org/v1/gonum/mat"

// Matrix is the read side shared by the probability tables and the
// count tables. Both also satisfy gonum's mat.Matrix so they can be
// handed to the persistence layer directly.
type Matrix interface {
	mat.Matrix
	Shape() (int, int)
}

var (
	_ Matrix = (*Float64Matrix)(nil)
	_ Matrix = (*Uint32Matrix)(nil)
)
