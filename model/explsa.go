package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/bin3/toyml/corpus"
	"github.com/bin3/toyml/matrix"
	"github.com/bin3/toyml/metrics"
	"github.com/bin3/toyml/sstable"
	"github.com/bin3/toyml/util"
)

func init() {
	Register("explsa", func(opts Options, data ...corpus.Reader) (Model, error) {
		if err := needCorpora(data, 2); err != nil {
			return nil, err
		}
		m := NewExPLSA()
		if err := m.Init(opts, data[0], data[1]); err != nil {
			return nil, err
		}
		return m, nil
	})
}

// ExPLSA explains the words of user u through the celebrities u follows:
//
//	p(w|u) = sum_{c in follows(u)} sum_t p(w|t) p(t|c) p(c|u)
//
// optionally mixed with a background word distribution of weight lambda.
// The EM step runs over users on a pool of workers.
type ExPLSA struct {
	opts     Options
	docs     corpus.Reader // user -> words
	follows  corpus.Reader // user -> celebrities
	observer Observer
	rng      *rand.Rand

	nu, nc, nt, nw int
	lambda         float64
	oc, ot, ow     float64 // offsets per contribution

	superCelebrity bool
	pSuperT        float64 // (1/C)(1/T), mass of the super celebrity per topic

	pcu *followTable          // p(c|u)
	ptc *matrix.Float64Matrix // p(t|c), topics x celebrities
	pwt *matrix.Float64Matrix // p(w|t), words x topics
	pwb []float64             // p(w|B)

	// celebrities with at least one follower who wrote something
	activeCelebrity []bool

	workers []*emWorker
	cursor  atomic.Int64
	userLik []float64
	iter    int
}

// emWorker owns private accumulators so workers never share writes.
type emWorker struct {
	pcu   *followTable
	ptc   *matrix.Float64Matrix
	pwt   *matrix.Float64Matrix
	unorm []float64
	cnorm []float64
	tnorm []float64
	joint []float64 // scratch, followed celebrities x topics
	users int
}

func NewExPLSA() *ExPLSA {
	return &ExPLSA{observer: nopObserver{}}
}

// Init validates opts against both corpora, allocates the shared tables
// and one accumulator set per worker, and randomizes the tables.
func (this *ExPLSA) Init(opts Options, docs, follows corpus.Reader) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := checkLambda(opts.Lambda); err != nil {
		return err
	}
	if opts.Lambda == 1 {
		return fmt.Errorf("%w: lambda=1 leaves nothing to the celebrities", ErrBadLambda)
	}
	if docs.DocNum() != follows.DocNum() {
		return fmt.Errorf("%w: %d documents, %d users", ErrSizeMismatch, docs.DocNum(), follows.DocNum())
	}
	if docs.DocNum() == 0 || docs.VocabSize() == 0 || follows.VocabSize() == 0 {
		return ErrEmptyCorpus
	}

	this.opts = opts
	this.docs, this.follows = docs, follows
	this.nu, this.nc, this.nt, this.nw = docs.DocNum(), follows.VocabSize(), opts.Topics, docs.VocabSize()
	this.lambda = opts.Lambda
	this.pwb = docs.WordProb()
	scale := float64(this.nu) * float64(this.nc) * float64(this.nt) * float64(this.nw)
	this.oc, this.ot, this.ow = opts.OC/scale, opts.OT/scale, opts.OW/scale
	this.superCelebrity = opts.SuperCelebrity
	this.pSuperT = 1 / float64(this.nc) / float64(this.nt)

	this.pcu = newFollowTable(follows)
	this.ptc = matrix.NewFloat64Matrix(this.nt, this.nc)
	this.pwt = matrix.NewFloat64Matrix(this.nw, this.nt)
	this.activeCelebrity = make([]bool, this.nc)
	for u := 0; u < this.nu; u += 1 {
		if len(docs.Doc(u)) == 0 {
			continue
		}
		for _, cc := range follows.Doc(u) {
			this.activeCelebrity[cc.WordId] = true
		}
	}

	maxFollows := 0
	for u := 0; u < this.nu; u += 1 {
		maxFollows = max(maxFollows, len(follows.Doc(u)))
	}
	this.workers = make([]*emWorker, util.NumWorkers(opts.Threads))
	for i := range this.workers {
		this.workers[i] = &emWorker{
			pcu:   this.pcu.sameShape(),
			ptc:   matrix.NewFloat64Matrix(this.nt, this.nc),
			pwt:   matrix.NewFloat64Matrix(this.nw, this.nt),
			unorm: make([]float64, this.nu),
			cnorm: make([]float64, this.nc),
			tnorm: make([]float64, this.nt),
			joint: make([]float64, maxFollows*this.nt),
		}
	}
	this.userLik = make([]float64, this.nu)
	this.iter = 0

	this.rng = util.NewRand(opts.Random, opts.Seed)
	this.initProb()

	log.Infof("%s initialized: users=%d, celebrities=%d, words=%d, workers=%d, %v",
		this.Name(), this.nu, this.nc, this.nw, len(this.workers), opts)
	return nil
}

func (this *ExPLSA) initProb() {
	for u := 0; u < this.nu; u += 1 {
		col := this.pcu.user(u)
		if len(col) == 0 {
			continue
		}
		randomize(col, this.rng)
		if this.superCelebrity {
			// leave 1/C of the mass to the super celebrity
			psuper := 1 / float64(this.nc)
			floats.Scale(1-psuper, col)
		}
	}
	randomizeColumns(this.ptc, this.rng)
	randomizeColumns(this.pwt, this.rng)
}

func (this *ExPLSA) Name() string {
	return "explsa"
}

func (this *ExPLSA) SetObserver(o Observer) {
	this.observer = observerOrNop(o)
}

// Threads returns the size of the worker pool.
func (this *ExPLSA) Threads() int {
	return len(this.workers)
}

func (this *ExPLSA) Train() int {
	if this.workers == nil {
		panic(ErrNotInitialized)
	}
	return runEM(this, &this.opts, this.observer)
}

func (this *ExPLSA) regularized() bool {
	return this.oc > 0 || this.ot > 0 || this.ow > 0 || this.superCelebrity
}

// parallel runs fn on every worker, each claiming users from a shared
// cursor until none are left, and waits for all of them.
func (this *ExPLSA) parallel(fn func(wk *emWorker, u int)) {
	this.cursor.Store(0)
	var wg sync.WaitGroup
	for _, wk := range this.workers {
		wg.Add(1)
		go func(wk *emWorker) {
			defer wg.Done()
			for {
				u := int(this.cursor.Add(1) - 1)
				if u >= this.nu {
					return
				}
				fn(wk, u)
			}
		}(wk)
	}
	wg.Wait()
}

func (this *ExPLSA) emStep() {
	this.iter += 1
	for _, wk := range this.workers {
		wk.reset()
	}
	this.parallel(this.accumulate)

	// fold every worker into the first one, in worker order
	sum := this.workers[0]
	for _, wk := range this.workers[1:] {
		floats.Add(sum.pcu.values, wk.pcu.values)
		sum.ptc.Add(wk.ptc)
		sum.pwt.Add(wk.pwt)
		floats.Add(sum.unorm, wk.unorm)
		floats.Add(sum.cnorm, wk.cnorm)
		floats.Add(sum.tnorm, wk.tnorm)
	}
	users := 0
	for _, wk := range this.workers {
		users += wk.users
	}
	metrics.ExPLSAUsersProcessed.Add(float64(users))

	this.normalize(sum)
}

func (wk *emWorker) reset() {
	floats.Scale(0, wk.pcu.values)
	wk.ptc.Zero()
	wk.pwt.Zero()
	floats.Scale(0, wk.unorm)
	floats.Scale(0, wk.cnorm)
	floats.Scale(0, wk.tnorm)
	wk.users = 0
}

// accumulate runs the E-step for user u and adds the expected counts to
// the worker's accumulators.
func (this *ExPLSA) accumulate(wk *emWorker, u int) {
	wk.users += 1
	fol := this.follows.Doc(u)
	pcu := this.pcu.user(u)
	acc := wk.pcu.user(u)
	joint := wk.joint[:len(fol)*this.nt]

	for _, wc := range this.docs.Doc(u) {
		w, n := wc.WordId, float64(wc.Count)

		norm := 0.0
		for i, cc := range fol {
			for t := 0; t < this.nt; t += 1 {
				v := this.pwt.Get(w, t) * this.ptc.Get(t, cc.WordId) * pcu[i]
				joint[i*this.nt+t] = v
				norm += v
			}
		}
		if this.superCelebrity {
			norm += floats.Sum(this.pwt.Row(w)) * this.pSuperT
		}
		if norm <= 0 {
			continue
		}
		pb := this.lambda * this.pwb[w]
		keep := 1 - pb/((1-this.lambda)*norm+pb)
		scale := n * keep / norm

		for i, cc := range fol {
			c := cc.WordId
			for t := 0; t < this.nt; t += 1 {
				np := joint[i*this.nt+t] * scale
				acc[i] += np + this.oc
				wk.ptc.Incr(t, c, np+this.ot)
				wk.pwt.Incr(w, t, np+this.ow)
				wk.unorm[u] += np + this.oc
				wk.cnorm[c] += np + this.ot
				wk.tnorm[t] += np + this.ow
			}
		}
		if this.superCelebrity {
			for t := 0; t < this.nt; t += 1 {
				np := this.pwt.Get(w, t) * this.pSuperT * scale
				wk.pwt.Incr(w, t, np+this.ow)
				wk.unorm[u] += np + this.oc
				wk.tnorm[t] += np + this.ow
			}
		}
	}
}

// normalize turns the summed accumulators into the new tables.
func (this *ExPLSA) normalize(sum *emWorker) {
	for u := 0; u < this.nu; u += 1 {
		col := this.pcu.user(u)
		if len(col) == 0 {
			continue
		}
		norm := sum.unorm[u]
		if norm <= zeroNorm {
			if len(this.docs.Doc(u)) == 0 {
				// nothing observed, keep the previous mixture
				continue
			}
			fatalf("explsa: iteration %d: user %d has normalizer %g", this.iter, u, norm)
		}
		acc := sum.pcu.user(u)
		for i := range col {
			col[i] = acc[i] / norm
		}
	}

	for c := 0; c < this.nc; c += 1 {
		norm := sum.cnorm[c]
		if norm <= zeroNorm {
			if !this.activeCelebrity[c] {
				continue
			}
			fatalf("explsa: iteration %d: celebrity %d has normalizer %g", this.iter, c, norm)
		}
		for t := 0; t < this.nt; t += 1 {
			this.ptc.Set(t, c, sum.ptc.Get(t, c)/norm)
		}
	}

	for t := 0; t < this.nt; t += 1 {
		norm := sum.tnorm[t]
		if norm <= zeroNorm {
			fatalf("explsa: iteration %d: topic %d has normalizer %g", this.iter, t, norm)
		}
		for w := 0; w < this.nw; w += 1 {
			this.pwt.Set(w, t, sum.pwt.Get(w, t)/norm)
		}
	}
}

// userLikelihood returns sum_w n log p(w|u) for user u.
func (this *ExPLSA) userLikelihood(u int) float64 {
	fol := this.follows.Doc(u)
	pcu := this.pcu.user(u)
	lik := 0.0
	for _, wc := range this.docs.Doc(u) {
		w := wc.WordId
		p := 0.0
		for i, cc := range fol {
			for t := 0; t < this.nt; t += 1 {
				p += this.pwt.Get(w, t) * this.ptc.Get(t, cc.WordId) * pcu[i]
			}
		}
		if this.superCelebrity {
			p += floats.Sum(this.pwt.Row(w)) * this.pSuperT
		}
		p = (1-this.lambda)*p + this.lambda*this.pwb[w]
		if p > 0 {
			lik += float64(wc.Count) * math.Log(p)
		}
	}
	return lik
}

// LogLikelihood is computed on the worker pool; per-user terms are summed
// in user order so the result does not depend on scheduling.
func (this *ExPLSA) LogLikelihood() float64 {
	this.parallel(func(_ *emWorker, u int) {
		this.userLik[u] = this.userLikelihood(u)
	})
	return floats.Sum(this.userLik)
}

// PTC returns a copy of p(t|c), topics x celebrities.
func (this *ExPLSA) PTC() *matrix.Float64Matrix {
	return this.ptc.Clone()
}

// PWT returns a copy of p(w|t), words x topics.
func (this *ExPLSA) PWT() *matrix.Float64Matrix {
	return this.pwt.Clone()
}

// PCU returns p(c|u) as a celebrities x users matrix.
func (this *ExPLSA) PCU() mat.Matrix {
	return this.pcu
}

// UserMixture returns a copy of p(c|u) for the celebrities u follows, in
// the order of the follow list.
func (this *ExPLSA) UserMixture(u int) []float64 {
	return append([]float64(nil), this.pcu.user(u)...)
}

// CelebrityProb returns p(c) = sum_u p(c|u) / U.
func (this *ExPLSA) CelebrityProb() []float64 {
	pc := this.pcu.celebrityMass()
	floats.Scale(1/float64(this.nu), pc)
	return pc
}

func (this *ExPLSA) SaveModel(suffix string) error {
	o := &this.opts
	var errs []error

	pc := this.CelebrityProb()
	celebrityScore := func(t int) []float64 {
		score := this.ptc.Row(t)
		out := make([]float64, len(score))
		floats.MulTo(out, pc, score)
		return out
	}
	if err := saveTopics(o.Path(o.TopicPath, suffix), this.nt, o.TopN,
		rankedList{title: "words", score: this.pwt.Col, label: this.docs.Word},
		rankedList{title: "celebrities", score: celebrityScore, label: this.follows.Word},
	); err != nil {
		errs = append(errs, err)
	}

	tables := []struct {
		fname string
		m     mat.Matrix
	}{
		{o.WZPath, this.pwt},
		{o.TCPath, this.ptc},
		{o.CUPath, this.pcu},
	}
	for _, t := range tables {
		if err := sstable.SaveMatrix(o.Path(t.fname, suffix), t.m, o.Separator); err != nil {
			errs = append(errs, err)
		}
	}
	if err := sstable.SaveEntropy(o.Path(o.EntropyPath, suffix), this.ptc); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("save %s model: %w", this.Name(), err)
	}
	return nil
}
