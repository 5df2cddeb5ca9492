package model

import (
	"fmt"
	"sort"

	"github.com/bin3/toyml/corpus"
)

var constructors = make(map[string]ModelCtor)

// the common interface every trainer follows
type Model interface {
	// name the model registered under
	Name() string
	// train until convergence or the iteration budget runs out, returns
	// the number of iterations run
	Train() int
	// log-likelihood of the corpus under the current parameters
	LogLikelihood() float64
	// write every table and report with the given file suffix
	SaveModel(suffix string) error
	// receive per iteration and per checkpoint callbacks
	SetObserver(o Observer)
}

// ModelCtor builds an initialized model. ExPLSA takes the document
// corpus followed by the follow-graph corpus, the other models take a
// single corpus.
type ModelCtor func(opts Options, data ...corpus.Reader) (Model, error)

// new trainers should register themselves using this function
func Register(modelType string, m ModelCtor) {
	constructors[modelType] = m
}

func GetModel(modelType string) (ModelCtor, error) {
	if _, ok := constructors[modelType]; !ok {
		return nil, fmt.Errorf("model %s not registered", modelType)
	}
	return constructors[modelType], nil
}

// Models lists the registered model names.
func Models() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func needCorpora(data []corpus.Reader, n int) error {
	if len(data) < n {
		return fmt.Errorf("%w: got %d, want %d", ErrMissingCorpus, len(data), n)
	}
	return nil
}
