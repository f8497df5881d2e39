// Package decode drives a StepModel through sampling, beam search and
// batched perplexity scoring. It owns the control flow, state handling and
// numeric edge cases; the transition function itself is an opaque oracle.
package decode

import (
	"github.com/siyutao/adversarial-nli/internal/batch"
)

// InvalidParameterError reports a non-positive width, round or length
// budget, or inconsistent parallel inputs. It is reported immediately and
// never retried.
type InvalidParameterError = batch.InvalidParameterError

func invalidParam(param string, value any) error {
	return &InvalidParameterError{Param: param, Value: value}
}

// Policy selects how the Generator picks the next token from a
// distribution.
type Policy string

const (
	// Greedy picks argmax at every step.
	Greedy Policy = "greedy"
	// Stochastic draws from the distribution by inverse-CDF sampling.
	Stochastic Policy = "stochastic"
	// Hybrid samples stochastically right after a line break and greedily
	// everywhere else, varying style only at sentence boundaries.
	Hybrid Policy = "hybrid"
)

// ParsePolicy maps a policy name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case Greedy, Stochastic, Hybrid:
		return Policy(s), nil
	}
	return "", invalidParam("policy", s)
}

// argmax returns the index of the largest value, preferring the lowest
// index on exact ties.
func argmax(dist []float64) int {
	best := 0
	for i, v := range dist[1:] {
		if v > dist[best] {
			best = i + 1
		}
	}
	return best
}

// weightedPick returns the first index whose prefix sum exceeds u, for
// u in [0, total mass). Inverse-CDF sampling over the raw distribution.
func weightedPick(dist []float64, u float64) int {
	c := 0.0
	for i, p := range dist {
		c += p
		if c > u {
			return i
		}
	}
	return len(dist) - 1
}

// clampID forces an id into [0, n), guarding against numerical overshoot in
// sampling.
func clampID(id, n int) int {
	if id < 0 {
		return 0
	}
	if id >= n {
		return n - 1
	}
	return id
}

// sumMass returns the total mass of a distribution.
func sumMass(dist []float64) float64 {
	t := 0.0
	for _, p := range dist {
		t += p
	}
	return t
}
