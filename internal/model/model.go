// Package model defines the one-step transition contract driven by the
// decoding and scoring engine, and the concrete predictors shipped with it.
package model

// State is the opaque hidden state carried between steps. Implementations
// never mutate a caller's state in place; Clone returns an independent copy
// so a forked hypothesis cannot observe its sibling's future updates.
type State interface {
	Clone() State
}

// StepModel is the one-step autoregressive transition oracle: given the
// previous token id and a carried state, it returns a probability
// distribution over the next token and the updated state.
//
// Step must be pure given (token, state) and must not mutate the caller's
// state. StepBatch advances every row of a batch by one time step with a
// single call; rows are independent. Failures propagate unmodified to the
// callers of Generator, BeamSearch and PerplexityScorer.
type StepModel interface {
	Step(token int, st State) (dist []float64, next State, err error)
	StepBatch(tokens []int, st State) (dists [][]float64, next State, err error)
	ZeroState(batchSize int) State
	VocabSize() int
}

// Param is one named, flat parameter tensor of a trainable model paired
// with its gradient accumulator. Optimizers update W in place.
type Param struct {
	Name string
	W    []float64
	G    []float64
}
