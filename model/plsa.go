package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/bin3/toyml/corpus"
	"github.com/bin3/toyml/matrix"
	"github.com/bin3/toyml/sstable"
	"github.com/bin3/toyml/util"
)

func init() {
	// plsa follows Options.Variant, bplsa always mixes in the background
	Register("plsa", func(opts Options, data ...corpus.Reader) (Model, error) {
		return newPLSAModel(opts, data)
	})
	Register("bplsa", func(opts Options, data ...corpus.Reader) (Model, error) {
		opts.Variant = Background.String()
		return newPLSAModel(opts, data)
	})
}

func newPLSAModel(opts Options, data []corpus.Reader) (Model, error) {
	if err := needCorpora(data, 1); err != nil {
		return nil, err
	}
	m := NewPLSA()
	if err := m.Init(opts, data[0]); err != nil {
		return nil, err
	}
	return m, nil
}

// PLSA fits p(d,w) = sum_z p(z) p(d|z) p(w|z) by EM. The Background
// variant mixes a fixed corpus word distribution p(w|B) with weight
// lambda into every document.
type PLSA struct {
	opts     Options
	data     corpus.Reader
	variant  Variant
	observer Observer
	rng      *rand.Rand

	nd, nz, nw int
	lambda     float64
	delta      float64 // smoothing per contribution

	pz  []float64             // p(z)
	pdz *matrix.Float64Matrix // p(d|z), docs x topics
	pwz *matrix.Float64Matrix // p(w|z), words x topics
	pwb []float64             // p(w|B)

	// M-step accumulators and E-step scratch, reused across steps
	nextPz  []float64
	nextPdz *matrix.Float64Matrix
	nextPwz *matrix.Float64Matrix
	pzdw    []float64
}

func NewPLSA() *PLSA {
	return &PLSA{observer: nopObserver{}}
}

// Init validates opts, allocates the tables for data and randomizes
// them. Calling Init again starts over.
func (this *PLSA) Init(opts Options, data corpus.Reader) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	variant, err := ParseVariant(opts.Variant)
	if err != nil {
		return err
	}
	if variant == Background {
		if err := checkLambda(opts.Lambda); err != nil {
			return err
		}
	}
	if data.DocNum() == 0 || data.VocabSize() == 0 {
		return ErrEmptyCorpus
	}

	this.opts = opts
	this.data = data
	this.variant = variant
	this.nd, this.nz, this.nw = data.DocNum(), opts.Topics, data.VocabSize()
	this.lambda, this.delta, this.pwb = 0, 0, nil
	if variant == Background {
		this.lambda = opts.Lambda
		this.delta = opts.Delta / float64(this.nd*this.nz*this.nw)
		this.pwb = data.WordProb()
	}

	this.pz = make([]float64, this.nz)
	this.pdz = matrix.NewFloat64Matrix(this.nd, this.nz)
	this.pwz = matrix.NewFloat64Matrix(this.nw, this.nz)
	this.nextPz = make([]float64, this.nz)
	this.nextPdz = matrix.NewFloat64Matrix(this.nd, this.nz)
	this.nextPwz = matrix.NewFloat64Matrix(this.nw, this.nz)
	this.pzdw = make([]float64, this.nz)

	this.rng = util.NewRand(opts.Random, opts.Seed)
	randomize(this.pz, this.rng)
	randomizeColumns(this.pdz, this.rng)
	randomizeColumns(this.pwz, this.rng)

	log.Infof("%s initialized: docs=%d, words=%d, %v", this.Name(), this.nd, this.nw, opts)
	return nil
}

func (this *PLSA) Name() string {
	if this.variant == Background {
		return "bplsa"
	}
	return "plsa"
}

func (this *PLSA) SetObserver(o Observer) {
	this.observer = observerOrNop(o)
}

func (this *PLSA) Train() int {
	if this.pz == nil {
		panic(ErrNotInitialized)
	}
	return runEM(this, &this.opts, this.observer)
}

func (this *PLSA) regularized() bool {
	return this.delta > 0
}

func (this *PLSA) emStep() {
	floats.Scale(0, this.nextPz)
	this.nextPdz.Zero()
	this.nextPwz.Zero()

	for d := 0; d < this.nd; d += 1 {
		for _, wc := range this.data.Doc(d) {
			w, n := wc.WordId, float64(wc.Count)

			// E-step: p(z|d,w)
			norm := 0.0
			for z := 0; z < this.nz; z += 1 {
				this.pzdw[z] = this.pz[z] * this.pdz.Get(d, z) * this.pwz.Get(w, z)
				norm += this.pzdw[z]
			}
			if norm > 0 {
				floats.Scale(1/norm, this.pzdw)
			}

			switch this.variant {
			case Background:
				pb := this.lambda * this.pwb[w]
				pbg := 0.0
				if denom := pb + (1-this.lambda)*norm; denom > 0 {
					pbg = pb / denom
				}
				n *= 1 - pbg
			}
			if norm <= 0 && this.delta == 0 {
				continue
			}

			// M-step numerators
			for z := 0; z < this.nz; z += 1 {
				np := n*this.pzdw[z] + this.delta
				this.nextPdz.Incr(d, z, np)
				this.nextPwz.Incr(w, z, np)
				this.nextPz[z] += np
			}
		}
	}

	total := floats.Sum(this.nextPz)
	for z := 0; z < this.nz; z += 1 {
		// the column sums of both numerator tables equal nextPz[z]
		znorm := this.nextPz[z]
		for d := 0; d < this.nd; d += 1 {
			this.pdz.Set(d, z, ratio(this.nextPdz.Get(d, z), znorm))
		}
		for w := 0; w < this.nw; w += 1 {
			this.pwz.Set(w, z, ratio(this.nextPwz.Get(w, z), znorm))
		}
		this.pz[z] = ratio(znorm, total)
	}
}

func ratio(num, norm float64) float64 {
	if norm <= 0 {
		return 0
	}
	return num / norm
}

// pdw returns sum_z p(z) p(d|z) p(w|z).
func (this *PLSA) pdw(d, w int) float64 {
	p := 0.0
	for z := 0; z < this.nz; z += 1 {
		p += this.pz[z] * this.pdz.Get(d, z) * this.pwz.Get(w, z)
	}
	return p
}

func (this *PLSA) LogLikelihood() float64 {
	lik := 0.0
	for d := 0; d < this.nd; d += 1 {
		for _, wc := range this.data.Doc(d) {
			p := this.pdw(d, wc.WordId)
			if this.variant == Background {
				p = (1-this.lambda)*p + this.lambda*this.pwb[wc.WordId]
			}
			if p > 0 {
				lik += float64(wc.Count) * math.Log(p)
			}
		}
	}
	return lik
}

// PZ returns a copy of p(z).
func (this *PLSA) PZ() []float64 {
	return append([]float64(nil), this.pz...)
}

// PDZ returns a copy of p(d|z), docs x topics.
func (this *PLSA) PDZ() *matrix.Float64Matrix {
	return this.pdz.Clone()
}

// PWZ returns a copy of p(w|z), words x topics.
func (this *PLSA) PWZ() *matrix.Float64Matrix {
	return this.pwz.Clone()
}

func (this *PLSA) SaveModel(suffix string) error {
	o := &this.opts
	var errs []error
	if err := saveTopics(o.Path(o.TopicPath, suffix), this.nz, o.TopN, rankedList{
		score: this.pwz.Col,
		label: this.data.Word,
	}); err != nil {
		errs = append(errs, err)
	}
	tables := []struct {
		fname string
		m     mat.Matrix
	}{
		{o.TPath, mat.NewVecDense(this.nz, this.PZ())},
		{o.DZPath, this.pdz},
		{o.WZPath, this.pwz},
	}
	for _, t := range tables {
		if err := sstable.SaveMatrix(o.Path(t.fname, suffix), t.m, o.Separator); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("save %s model: %w", this.Name(), err)
	}
	return nil
}
