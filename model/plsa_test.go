package model

import (
	"bufio"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/bin3/toyml/sstable"
)

const plsaDocs = "a a b\nb c c\na c\nd e d e f\ne f f d\n"

func TestPLSANormalization(t *testing.T) {
	for _, variant := range []Variant{Plain, Background} {
		t.Run(variant.String(), func(t *testing.T) {
			opts := testOptions()
			opts.Variant = variant.String()
			p := NewPLSA()
			require.NoError(t, p.Init(opts, loadCorpus(t, plsaDocs)))
			assert.LessOrEqual(t, p.Train(), 30)

			assert.InDelta(t, 1.0, floats.Sum(p.PZ()), sumTolerance)
			assertColumnsSumToOne(t, p.PDZ())
			assertColumnsSumToOne(t, p.PWZ())
		})
	}
}

func TestPLSALikelihoodNonDecreasing(t *testing.T) {
	for _, variant := range []Variant{Plain, Background} {
		t.Run(variant.String(), func(t *testing.T) {
			opts := testOptions()
			opts.Variant = variant.String()
			opts.Topics = 3
			p := NewPLSA()
			require.NoError(t, p.Init(opts, loadCorpus(t, plsaDocs)))
			r := &recorder{}
			p.SetObserver(r)
			before := p.LogLikelihood()
			n := p.Train()

			require.Len(t, r.iterations, n)
			assertNonDecreasing(t, r.iterations)
			assert.Greater(t, p.LogLikelihood(), before)
			assert.Equal(t, p.Name(), r.iterations[0].Model)
		})
	}
}

func TestPLSADeterministic(t *testing.T) {
	data := loadCorpus(t, plsaDocs)
	run := func() *PLSA {
		p := NewPLSA()
		require.NoError(t, p.Init(testOptions(), data))
		p.Train()
		return p
	}
	a, b := run(), run()
	assert.Equal(t, a.PZ(), b.PZ())
	assert.Equal(t, a.PDZ().RawData(), b.PDZ().RawData())
	assert.Equal(t, a.PWZ().RawData(), b.PWZ().RawData())
	assert.Equal(t, a.LogLikelihood(), b.LogLikelihood())
}

func TestPLSAConvergence(t *testing.T) {
	opts := testOptions()
	opts.Iters = 1000
	opts.Eps = 1e-3
	p := NewPLSA()
	require.NoError(t, p.Init(opts, loadCorpus(t, plsaDocs)))
	assert.Less(t, p.Train(), 1000)
}

func TestPLSAZeroIterations(t *testing.T) {
	opts := testOptions()
	opts.Iters = 0
	p := NewPLSA()
	require.NoError(t, p.Init(opts, loadCorpus(t, plsaDocs)))
	assert.Equal(t, 0, p.Train())
}

func TestPLSASmoothing(t *testing.T) {
	opts := testOptions()
	opts.Variant = Background.String()
	opts.Delta = 1
	p := NewPLSA()
	require.NoError(t, p.Init(opts, loadCorpus(t, plsaDocs)))
	assert.True(t, p.regularized())
	p.Train()

	// smoothing leaves no word with zero probability
	r, c := p.PWZ().Shape()
	for w := 0; w < r; w += 1 {
		for z := 0; z < c; z += 1 {
			assert.Greater(t, p.PWZ().Get(w, z), 0.0)
		}
	}
	assertColumnsSumToOne(t, p.PWZ())
}

func TestPLSAInitErrors(t *testing.T) {
	data := loadCorpus(t, plsaDocs)

	for _, lambda := range []float64{-0.1, 1.5, math.NaN()} {
		opts := testOptions()
		opts.Variant = Background.String()
		opts.Lambda = lambda
		assert.ErrorIs(t, NewPLSA().Init(opts, data), ErrBadLambda)
	}

	// lambda is only checked for the background variant
	opts := testOptions()
	opts.Lambda = 3
	assert.NoError(t, NewPLSA().Init(opts, data))

	opts = testOptions()
	opts.Variant = "fancy"
	assert.ErrorIs(t, NewPLSA().Init(opts, data), ErrBadVariant)

	opts = testOptions()
	opts.Topics = 0
	assert.Error(t, NewPLSA().Init(opts, data))

	assert.ErrorIs(t, NewPLSA().Init(testOptions(), loadCorpus(t, "\n\n")), ErrEmptyCorpus)
}

func TestPLSATrainBeforeInit(t *testing.T) {
	assert.PanicsWithValue(t, ErrNotInitialized, func() { NewPLSA().Train() })
}

func TestPLSACheckpoints(t *testing.T) {
	opts := testOptions()
	opts.DataDir = t.TempDir()
	opts.Iters = 5
	opts.SaveInterval = 2
	p := NewPLSA()
	require.NoError(t, p.Init(opts, loadCorpus(t, plsaDocs)))
	r := &recorder{}
	p.SetObserver(r)
	p.Train()

	assert.Equal(t, []string{"0", "2", "4", "final"}, r.suffixes())
	for _, c := range r.checkpoints {
		assert.NoError(t, c.Err)
	}

	pwz, err := sstable.LoadMatrix(filepath.Join(opts.DataDir, "word-topic-prob.dat.final"), opts.Separator)
	require.NoError(t, err)
	rows, cols := pwz.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 2, cols)
	for w := 0; w < rows; w += 1 {
		for z := 0; z < cols; z += 1 {
			assert.Equal(t, p.PWZ().Get(w, z), pwz.At(w, z))
		}
	}

	pz, err := sstable.LoadMatrix(filepath.Join(opts.DataDir, "topic-prob.dat.final"), opts.Separator)
	require.NoError(t, err)
	assert.Equal(t, p.PZ(), pz.RawMatrix().Data)

	_, err = os.Stat(filepath.Join(opts.DataDir, "doc-topic-prob.dat.2"))
	assert.NoError(t, err)
}

func TestPLSACheckpointFailure(t *testing.T) {
	opts := testOptions()
	opts.DataDir = filepath.Join(t.TempDir(), "missing")
	opts.Iters = 2
	p := NewPLSA()
	require.NoError(t, p.Init(opts, loadCorpus(t, plsaDocs)))
	r := &recorder{}
	p.SetObserver(r)

	// training goes on when checkpoints cannot be written
	assert.Equal(t, 2, p.Train())
	require.NotEmpty(t, r.checkpoints)
	for _, c := range r.checkpoints {
		assert.Error(t, c.Err)
	}
}

func TestPLSAEndToEnd(t *testing.T) {
	opts := DefaultOptions()
	opts.Topics = 2
	opts.Iters = 50
	opts.Seed = 1
	opts.DataDir = t.TempDir()
	p := NewPLSA()
	require.NoError(t, p.Init(opts, loadCorpus(t, "a a b\nb c c\na c\n")))
	n := p.Train()
	assert.LessOrEqual(t, n, 50)
	assertColumnsSumToOne(t, p.PWZ())

	f, err := os.Open(filepath.Join(opts.DataDir, "topics.dat.final"))
	require.NoError(t, err)
	defer f.Close()
	words := map[int]int{}
	topic := -1
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "Topic #") {
			topic += 1
			continue
		}
		require.True(t, strings.HasPrefix(line, "\t"), line)
		assert.Len(t, strings.Split(line[1:], "\t"), 2)
		words[topic] += 1
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 1, topic)
	for z := 0; z < 2; z += 1 {
		assert.LessOrEqual(t, words[z], 3)
		assert.Greater(t, words[z], 0)
	}
}

func TestPLSATablesAreCopies(t *testing.T) {
	p := NewPLSA()
	require.NoError(t, p.Init(testOptions(), loadCorpus(t, plsaDocs)))
	pwz := p.PWZ()
	pwz.Set(0, 0, 42)
	assert.NotEqual(t, 42.0, p.PWZ().Get(0, 0))
	pdz := p.PDZ()
	pdz.Set(0, 0, 42)
	assert.NotEqual(t, 42.0, p.PDZ().Get(0, 0))
}
