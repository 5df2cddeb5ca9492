package model

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Variant selects the flavour of the pLSA EM step.
type Variant int

const (
	Plain Variant = iota
	Background
)

func (v Variant) String() string {
	switch v {
	case Plain:
		return "plain"
	case Background:
		return "background"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant maps a configuration value onto a Variant. The empty
// string means Plain.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain":
		return Plain, nil
	case "background", "bplsa":
		return Background, nil
	}
	return Plain, fmt.Errorf("%w: %q", ErrBadVariant, s)
}

// Options is the full set of training knobs shared by every model. Each
// model reads the fields it needs and ignores the rest.
type Options struct {
	Topics       int     `koanf:"topics" validate:"gt=0"`
	Iters        int     `koanf:"iters" validate:"gte=0"`
	Eps          float64 `koanf:"eps" validate:"gte=0"`
	LogInterval  int     `koanf:"log_interval" validate:"gt=0"`
	SaveInterval int     `koanf:"save_interval" validate:"gt=0"`
	TopN         int     `koanf:"topn" validate:"gte=0"`

	// DataDir is where checkpoints go. Empty disables checkpointing
	// during Train; SaveModel then writes relative to the working dir.
	DataDir     string `koanf:"datadir"`
	Separator   string `koanf:"separator"`
	FinalSuffix string `koanf:"final_suffix"`

	TopicPath   string `koanf:"topic_path"`
	TPath       string `koanf:"tpath"`
	DZPath      string `koanf:"dzpath"`
	WZPath      string `koanf:"wzpath"`
	ZWPath      string `koanf:"zwpath"`
	TCPath      string `koanf:"tcpath"`
	CUPath      string `koanf:"cupath"`
	EntropyPath string `koanf:"entropy_path"`

	// pLSA
	Variant string  `koanf:"variant"`
	Lambda  float64 `koanf:"lambda"`
	Delta   float64 `koanf:"delta" validate:"gte=0"`

	// ExPLSA
	OW             float64 `koanf:"ow" validate:"gte=0"`
	OT             float64 `koanf:"ot" validate:"gte=0"`
	OC             float64 `koanf:"oc" validate:"gte=0"`
	SuperCelebrity bool    `koanf:"super_celebrity"`
	Threads        int     `koanf:"threads" validate:"gte=0"`

	// LDA
	Alpha float64 `koanf:"alpha" validate:"gt=0"`
	Beta  float64 `koanf:"beta" validate:"gt=0"`

	Random bool  `koanf:"random"`
	Seed   int64 `koanf:"seed"`
}

func DefaultOptions() Options {
	return Options{
		Topics:       10,
		Iters:        100,
		Eps:          1e-3,
		LogInterval:  10,
		SaveInterval: 10,
		TopN:         10,
		Separator:    "\t",
		FinalSuffix:  "final",
		TopicPath:    "topics.dat",
		TPath:        "topic-prob.dat",
		DZPath:       "doc-topic-prob.dat",
		WZPath:       "word-topic-prob.dat",
		ZWPath:       "topic-word-prob.dat",
		TCPath:       "topic-cel-prob.dat",
		CUPath:       "cel-user-prob.dat",
		EntropyPath:  "topic-cel-entropy.dat",
		Variant:      Plain.String(),
		Lambda:       0.2,
		Alpha:        50,
		Beta:         0.1,
	}
}

// Validate checks the options that do not depend on a particular model.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("model: invalid options: %w", err)
	}
	return nil
}

func checkLambda(lambda float64) error {
	// written so that NaN fails too
	if !(lambda >= 0 && lambda <= 1) {
		return fmt.Errorf("%w: lambda=%v", ErrBadLambda, lambda)
	}
	return nil
}

// Path returns the checkpoint file for fname, with suffix appended as
// an extension when it is not empty.
func (o Options) Path(fname, suffix string) string {
	if suffix != "" {
		fname = fname + "." + suffix
	}
	return filepath.Join(o.DataDir, fname)
}

func (o Options) String() string {
	return fmt.Sprintf("topics=%d, iters=%d, eps=%g, log_interval=%d, save_interval=%d, "+
		"topn=%d, variant=%s, lambda=%g, delta=%g, threads=%d, random=%t, seed=%d, datadir=%s",
		o.Topics, o.Iters, o.Eps, o.LogInterval, o.SaveInterval,
		o.TopN, o.Variant, o.Lambda, o.Delta, o.Threads, o.Random, o.Seed, o.DataDir)
}
