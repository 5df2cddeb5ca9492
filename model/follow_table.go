package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/bin3/toyml/corpus"
)

// followTable stores p(c|u) only for the celebrities each user follows.
// The values of user u occupy [offsets[u], offsets[u+1]) in the same
// order as follows.Doc(u). Seen from outside it is a celebrities x
// users matrix with zeros off the follow graph.
type followTable struct {
	follows corpus.Reader
	ncel    int
	offsets []int
	values  []float64
}

var _ mat.Matrix = (*followTable)(nil)

func newFollowTable(follows corpus.Reader) *followTable {
	nu := follows.DocNum()
	offsets := make([]int, nu+1)
	for u := 0; u < nu; u += 1 {
		offsets[u+1] = offsets[u] + len(follows.Doc(u))
	}
	return &followTable{
		follows: follows,
		ncel:    follows.VocabSize(),
		offsets: offsets,
		values:  make([]float64, offsets[nu]),
	}
}

// sameShape returns an all-zero table laid out like t.
func (t *followTable) sameShape() *followTable {
	return &followTable{
		follows: t.follows,
		ncel:    t.ncel,
		offsets: t.offsets,
		values:  make([]float64, len(t.values)),
	}
}

// user returns the live values of user u.
func (t *followTable) user(u int) []float64 {
	return t.values[t.offsets[u]:t.offsets[u+1]]
}

func (t *followTable) Dims() (int, int) {
	return t.ncel, len(t.offsets) - 1
}

func (t *followTable) At(c, u int) float64 {
	if c < 0 || c >= t.ncel || u < 0 || u >= len(t.offsets)-1 {
		panic(mat.ErrIndexOutOfRange)
	}
	fol := t.follows.Doc(u)
	// follow lists are sorted by celebrity id
	i := sort.Search(len(fol), func(i int) bool { return fol[i].WordId >= c })
	if i < len(fol) && fol[i].WordId == c {
		return t.values[t.offsets[u]+i]
	}
	return 0
}

func (t *followTable) T() mat.Matrix {
	return mat.Transpose{Matrix: t}
}

// celebrityMass returns sum_u p(c|u) for every celebrity.
func (t *followTable) celebrityMass() []float64 {
	mass := make([]float64, t.ncel)
	for u := 0; u < len(t.offsets)-1; u += 1 {
		for i, cc := range t.follows.Doc(u) {
			mass[cc.WordId] += t.values[t.offsets[u]+i]
		}
	}
	return mass
}
