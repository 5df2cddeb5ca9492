package model

import "errors"

var (
	ErrBadLambda      = errors.New("model: lambda must be within [0, 1]")
	ErrBadVariant     = errors.New("model: unknown pLSA variant")
	ErrEmptyCorpus    = errors.New("model: corpus has no documents or no words")
	ErrSizeMismatch   = errors.New("model: number of documents and users are not equal")
	ErrMissingCorpus  = errors.New("model: not enough corpora for model")
	ErrNotInitialized = errors.New("model: Train called before Init")
)
