package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/floats"

	"github.com/bin3/toyml/corpus"
	"github.com/bin3/toyml/matrix"
	"github.com/bin3/toyml/metrics"
	"github.com/bin3/toyml/sstable"
	"github.com/bin3/toyml/util"
)

func init() {
	Register("lda", func(opts Options, data ...corpus.Reader) (Model, error) {
		if err := needCorpora(data, 1); err != nil {
			return nil, err
		}
		m := NewGibbsLDA()
		if err := m.Init(opts, data[0]); err != nil {
			return nil, err
		}
		return m, nil
	})
}

// GibbsLDA is LDA trained with a collapsed gibbs sampler.
type GibbsLDA struct {
	opts     Options
	data     corpus.Reader
	observer Observer
	rng      *rand.Rand

	docNum, vocabSize, topicNum int
	alpha                       float64 // document topic mixture hyperparameter, per topic
	beta                        float64 // topic word mixture hyperparameter

	wt  *matrix.Uint32Matrix // word-topic count table
	dt  *matrix.Uint32Matrix // doc-topic count table
	wts []uint32             // topic count
	ds  []uint32             // doc length
	dw  [][]int              // doc-word tokens
	dwt [][]int              // doc-word-topic assignment

	cumsum []float64
}

func NewGibbsLDA() *GibbsLDA {
	return &GibbsLDA{observer: nopObserver{}}
}

// Init validates opts and assigns every token of data a random topic.
func (this *GibbsLDA) Init(opts Options, data corpus.Reader) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if data.DocNum() == 0 || data.VocabSize() == 0 {
		return ErrEmptyCorpus
	}

	this.opts = opts
	this.data = data
	this.docNum, this.vocabSize, this.topicNum = data.DocNum(), data.VocabSize(), opts.Topics
	this.alpha = opts.Alpha / float64(opts.Topics)
	this.beta = opts.Beta

	this.wt = matrix.NewUint32Matrix(this.vocabSize, this.topicNum)
	this.dt = matrix.NewUint32Matrix(this.docNum, this.topicNum)
	this.wts = make([]uint32, this.topicNum)
	this.ds = make([]uint32, this.docNum)
	this.dw = make([][]int, this.docNum)
	this.dwt = make([][]int, this.docNum)
	this.cumsum = make([]float64, this.topicNum)
	this.rng = util.NewRand(opts.Random, opts.Seed)

	// randomly assign topic to word
	for doc := 0; doc < this.docNum; doc += 1 {
		words := corpus.ExpandWords(data.Doc(doc))
		this.dw[doc] = words
		this.dwt[doc] = make([]int, len(words))
		for i, w := range words {
			k := this.rng.Intn(this.topicNum)
			this.dwt[doc][i] = k
			this.incr(doc, w, k)
		}
	}

	log.Infof("%s initialized: docs=%d, words=%d, tokens=%d, %v",
		this.Name(), this.docNum, this.vocabSize, data.TotalWords(), opts)
	return nil
}

func (this *GibbsLDA) Name() string {
	return "lda"
}

func (this *GibbsLDA) SetObserver(o Observer) {
	this.observer = observerOrNop(o)
}

// update sufficient statistics
func (this *GibbsLDA) incr(doc, w, k int) {
	this.wt.Incr(w, k, 1)
	this.dt.Incr(doc, k, 1)
	this.wts[k] += 1
	this.ds[doc] += 1
}

func (this *GibbsLDA) decr(doc, w, k int) {
	this.wt.Decr(w, k, 1)
	this.dt.Decr(doc, k, 1)
	this.wts[k] -= 1
	this.ds[doc] -= 1
}

// Train runs the configured number of sweeps and returns it.
func (this *GibbsLDA) Train() int {
	if this.wt == nil {
		panic(ErrNotInitialized)
	}
	name := this.Name()
	checkpoint(this, &this.opts, this.observer, "0")
	pre := this.LogLikelihood()
	log.Infof("[begin] %s L=%.10g", name, pre)

	for iter := 1; iter <= this.opts.Iters; iter += 1 {
		start := time.Now()
		this.sweep()
		elapsed := time.Since(start)

		cur := this.LogLikelihood()
		metrics.TrainIterations.WithLabelValues(name).Inc()
		metrics.LogLikelihood.WithLabelValues(name).Set(cur)
		metrics.IterationDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		this.observer.OnIteration(IterationStat{
			Model:         name,
			Iteration:     iter,
			LogLikelihood: cur,
			Delta:         cur - pre,
			Duration:      elapsed,
		})
		if iter%this.opts.LogInterval == 0 {
			log.Infof("iter %5d, likelihood %f, took %v", iter, cur, elapsed)
			if log.V(2) {
				if err := this.CheckCounts(); err != nil {
					log.Errorf("iter %d: %v", iter, err)
				}
			}
		}
		if iter%this.opts.SaveInterval == 0 {
			checkpoint(this, &this.opts, this.observer, strconv.Itoa(iter))
		}
		pre = cur
	}
	log.Infof("[end] %s after %d iterations", name, this.opts.Iters)
	checkpoint(this, &this.opts, this.observer, this.opts.FinalSuffix)
	return this.opts.Iters
}

// collapsed gibbs sampling, one pass over every token
func (this *GibbsLDA) sweep() {
	wbeta := float64(this.vocabSize) * this.beta
	kalpha := float64(this.topicNum) * this.alpha
	for doc, words := range this.dw {
		for i, w := range words {
			// decrease corresponding sufficient statistics
			k := this.dwt[doc][i]
			this.decr(doc, w, k)

			// resample the topic
			docNorm := float64(this.ds[doc]) + kalpha
			for kidx := 0; kidx < this.topicNum; kidx += 1 {
				wordPart := (float64(this.wt.Get(w, kidx)) + this.beta) /
					(float64(this.wts[kidx]) + wbeta)
				docPart := (float64(this.dt.Get(doc, kidx)) + this.alpha) / docNorm
				this.cumsum[kidx] = wordPart * docPart
			}
			floats.CumSum(this.cumsum, this.cumsum)
			k = sampleTopic(this.cumsum, this.rng.Float64()*this.cumsum[this.topicNum-1])

			// increase corresponding sufficient statistics
			this.incr(doc, w, k)
			this.dwt[doc][i] = k
		}
	}
}

// sampleTopic returns the first topic whose cumulative mass reaches u.
func sampleTopic(cum []float64, u float64) int {
	k := sort.SearchFloat64s(cum, u)
	if k == len(cum) {
		k = len(cum) - 1
	}
	return k
}

// compute the posterior point estimation of word-topic mixture
// beta (Dirichlet prior) + data -> phi
func (this *GibbsLDA) Phi() *matrix.Float64Matrix {
	phi := matrix.NewFloat64Matrix(this.vocabSize, this.topicNum)
	wbeta := float64(this.vocabSize) * this.beta
	for k := 0; k < this.topicNum; k += 1 {
		sum := float64(this.wts[k])
		for v := 0; v < this.vocabSize; v += 1 {
			phi.Set(v, k, (float64(this.wt.Get(v, k))+this.beta)/(sum+wbeta))
		}
	}
	return phi
}

// compute the posterior point estimation of document-topic mixture
// alpha (Dirichlet prior) + data -> theta
func (this *GibbsLDA) Theta() *matrix.Float64Matrix {
	theta := matrix.NewFloat64Matrix(this.docNum, this.topicNum)
	kalpha := float64(this.topicNum) * this.alpha
	for d := 0; d < this.docNum; d += 1 {
		sum := float64(this.ds[d])
		for k := 0; k < this.topicNum; k += 1 {
			theta.Set(d, k, (float64(this.dt.Get(d, k))+this.alpha)/(sum+kalpha))
		}
	}
	return theta
}

// LogLikelihood is sum_d sum_tokens log sum_z theta(d,z) phi(w,z).
func (this *GibbsLDA) LogLikelihood() float64 {
	phi := this.Phi()
	theta := this.Theta()
	lik := 0.0
	for d := 0; d < this.docNum; d += 1 {
		for _, wc := range this.data.Doc(d) {
			p := floats.Dot(theta.Row(d), phi.Row(wc.WordId))
			if p > 0 {
				lik += float64(wc.Count) * math.Log(p)
			}
		}
	}
	return lik
}

// Assignments returns a copy of the topic of every token, per document.
func (this *GibbsLDA) Assignments() [][]int {
	out := make([][]int, len(this.dwt))
	for d, zs := range this.dwt {
		out[d] = append([]int(nil), zs...)
	}
	return out
}

// CheckCounts verifies that the count tables agree with the current
// assignments.
func (this *GibbsLDA) CheckCounts() error {
	wt := matrix.NewUint32Matrix(this.vocabSize, this.topicNum)
	dt := matrix.NewUint32Matrix(this.docNum, this.topicNum)
	wts := make([]uint32, this.topicNum)
	total := uint32(0)
	for doc, words := range this.dw {
		if got := util.VectorSum(this.dt.GetRow(doc)); got != this.ds[doc] || int(got) != len(words) {
			return fmt.Errorf("doc %d: topic counts sum to %d, length %d, %d tokens",
				doc, got, this.ds[doc], len(words))
		}
		for i, w := range words {
			k := this.dwt[doc][i]
			wt.Incr(w, k, 1)
			dt.Incr(doc, k, 1)
			wts[k] += 1
			total += 1
		}
	}
	if got := util.VectorSum(this.wts); got != total {
		return fmt.Errorf("topic counts sum to %d, want %d tokens", got, total)
	}
	for k := 0; k < this.topicNum; k += 1 {
		if got := util.VectorSum(this.wt.GetCol(k)); got != this.wts[k] {
			return fmt.Errorf("topic %d: word counts sum to %d, topic count %d", k, got, this.wts[k])
		}
		if wts[k] != this.wts[k] {
			return fmt.Errorf("topic %d: count %d, want %d", k, this.wts[k], wts[k])
		}
		for v := 0; v < this.vocabSize; v += 1 {
			if wt.Get(v, k) != this.wt.Get(v, k) {
				return fmt.Errorf("word %d topic %d: count %d, want %d", v, k, this.wt.Get(v, k), wt.Get(v, k))
			}
		}
		for d := 0; d < this.docNum; d += 1 {
			if dt.Get(d, k) != this.dt.Get(d, k) {
				return fmt.Errorf("doc %d topic %d: count %d, want %d", d, k, this.dt.Get(d, k), dt.Get(d, k))
			}
		}
	}
	return nil
}

func (this *GibbsLDA) SaveModel(suffix string) error {
	o := &this.opts
	phi := this.Phi()
	var errs []error
	if err := saveTopics(o.Path(o.TopicPath, suffix), this.topicNum, o.TopN, rankedList{
		score: phi.Col,
		label: this.data.Word,
	}); err != nil {
		errs = append(errs, err)
	}
	if err := sstable.SaveMatrix(o.Path(o.ZWPath, suffix), phi, o.Separator); err != nil {
		errs = append(errs, err)
	}
	if err := sstable.SaveMatrix(o.Path(o.DZPath, suffix), this.Theta(), o.Separator); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("save %s model: %w", this.Name(), err)
	}
	return nil
}
