package model

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bin3/toyml/corpus"
	"github.com/bin3/toyml/matrix"
)

const sumTolerance = 1e-9

func loadCorpus(t *testing.T, text string) *corpus.Corpus {
	t.Helper()
	c, err := corpus.Load(strings.NewReader(text))
	require.NoError(t, err)
	return c
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Topics = 2
	opts.Iters = 30
	opts.Eps = 0
	opts.Seed = 7
	return opts
}

// recorder keeps every callback it receives.
type recorder struct {
	iterations  []IterationStat
	checkpoints []CheckpointStat
}

func (r *recorder) OnIteration(stat IterationStat)   { r.iterations = append(r.iterations, stat) }
func (r *recorder) OnCheckpoint(stat CheckpointStat) { r.checkpoints = append(r.checkpoints, stat) }

func (r *recorder) suffixes() []string {
	var out []string
	for _, c := range r.checkpoints {
		out = append(out, c.Suffix)
	}
	return out
}

func assertColumnsSumToOne(t *testing.T, m *matrix.Float64Matrix) {
	t.Helper()
	_, c := m.Shape()
	for cidx := 0; cidx < c; cidx += 1 {
		assert.InDelta(t, 1.0, m.ColSum(cidx), sumTolerance, "column %d", cidx)
	}
}

func assertNonDecreasing(t *testing.T, stats []IterationStat) {
	t.Helper()
	for _, s := range stats {
		assert.GreaterOrEqual(t, s.Delta, -1e-9*math.Max(1, math.Abs(s.LogLikelihood)),
			"iteration %d", s.Iteration)
	}
}
