package model

import "time"

type IterationStat struct {
	Model         string
	Iteration     int
	LogLikelihood float64
	Delta         float64
	Duration      time.Duration
}

type CheckpointStat struct {
	Model  string
	Suffix string
	Err    error
}

// Observer receives training progress. Calls happen on the goroutine
// running Train.
type Observer interface {
	OnIteration(stat IterationStat)
	OnCheckpoint(stat CheckpointStat)
}

type nopObserver struct{}

func (nopObserver) OnIteration(IterationStat)   {}
func (nopObserver) OnCheckpoint(CheckpointStat) {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
