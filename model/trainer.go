package model

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/floats"

	"github.com/bin3/toyml/matrix"
	"github.com/bin3/toyml/metrics"
)

const (
	// upper bound of the integers drawn when randomizing a distribution
	randMod = 10000
	// normalizers at or below this are treated as zero
	zeroNorm = 1e-10
	// relative slack allowed on a likelihood decrease
	likelihoodSlack = 1e-9
)

// fatalf reports a broken mathematical invariant.
var fatalf = log.Fatalf

// emModel is what runEM needs from an EM trainer.
type emModel interface {
	Name() string
	LogLikelihood() float64
	SaveModel(suffix string) error
	emStep()
	// regularized reports whether the update is no longer an exact EM
	// step, in which case the likelihood may legitimately go down.
	regularized() bool
}

// runEM drives m until the likelihood gain falls below eps or the
// iteration budget runs out, checkpointing along the way. It returns the
// number of EM steps run.
func runEM(m emModel, opts *Options, observer Observer) int {
	name := m.Name()
	checkpoint(m, opts, observer, "0")

	pre := m.LogLikelihood()
	log.Infof("[begin] %s L=%.10g", name, pre)
	metrics.LogLikelihood.WithLabelValues(name).Set(pre)

	iter := 0
	for iter < opts.Iters {
		iter += 1
		start := time.Now()
		m.emStep()
		if iter%opts.SaveInterval == 0 {
			checkpoint(m, opts, observer, strconv.Itoa(iter))
		}
		cur := m.LogLikelihood()
		diff := cur - pre
		elapsed := time.Since(start)

		metrics.TrainIterations.WithLabelValues(name).Inc()
		metrics.LogLikelihood.WithLabelValues(name).Set(cur)
		metrics.IterationDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		observer.OnIteration(IterationStat{
			Model:         name,
			Iteration:     iter,
			LogLikelihood: cur,
			Delta:         diff,
			Duration:      elapsed,
		})
		if iter%opts.LogInterval == 0 {
			log.Infof("Iteration#%d L=%.10g, diff=%g, took %v", iter, cur, diff, elapsed)
		}

		if !m.regularized() && diff < -likelihoodSlack*math.Max(1, math.Abs(pre)) {
			fatalf("%s: log-likelihood decreased at iteration %d: previous=%.17g, current=%.17g",
				name, iter, pre, cur)
		}
		if diff < opts.Eps {
			log.Infof("[converged] Iteration#%d L=%.10g, diff=%g < eps=%g", iter, cur, diff, opts.Eps)
			break
		}
		pre = cur
	}
	log.Infof("[end] %s after %d iterations", name, iter)
	checkpoint(m, opts, observer, opts.FinalSuffix)
	return iter
}

// checkpoint persists m unless no data directory is configured. Failures
// are logged and counted, training goes on.
func checkpoint(m interface {
	Name() string
	SaveModel(suffix string) error
}, opts *Options, observer Observer, suffix string) {
	if opts.DataDir == "" {
		log.V(1).Infof("no datadir, skipping checkpoint %s", suffix)
		return
	}
	err := m.SaveModel(suffix)
	metrics.RecordCheckpoint(m.Name(), err)
	observer.OnCheckpoint(CheckpointStat{Model: m.Name(), Suffix: suffix, Err: err})
	if err != nil {
		log.Errorf("failed to save %s checkpoint %s: %v", m.Name(), suffix, err)
		return
	}
	log.V(1).Infof("saved %s checkpoint %s to %s", m.Name(), suffix, opts.DataDir)
}

// randomize fills v with random integers in [1, randMod] and scales it
// to sum to one.
func randomize(v []float64, rng *rand.Rand) {
	for i := range v {
		v[i] = float64(rng.Intn(randMod) + 1)
	}
	floats.Scale(1/floats.Sum(v), v)
}

// randomizeColumns makes every column of m a random distribution.
func randomizeColumns(m *matrix.Float64Matrix, rng *rand.Rand) {
	r, c := m.Shape()
	column := make([]float64, r)
	for cidx := 0; cidx < c; cidx += 1 {
		randomize(column, rng)
		for ridx := 0; ridx < r; ridx += 1 {
			m.Set(ridx, cidx, column[ridx])
		}
	}
}
