package decode

import (
	"fmt"
	"math"

	"github.com/siyutao/adversarial-nli/internal/batch"
	"github.com/siyutao/adversarial-nli/internal/model"
)

// PerplexityScorer computes one summed negative log-likelihood per complete
// sequence, batched: one StepBatch call advances every row by one time
// step, each row carrying its own hidden state.
type PerplexityScorer struct {
	Model model.StepModel
}

// Score pads the given sequences (each expected to start with the BOS
// marker) and returns one scalar per sequence. An empty input returns an
// empty result without touching the model.
func (s *PerplexityScorer) Score(sequences [][]int) ([]float64, error) {
	if len(sequences) == 0 {
		return []float64{}, nil
	}
	return s.LogPerplexity(batch.Pad(sequences))
}

// LogPerplexity scores a padded batch. The leading boundary column is
// dropped, then for every time step the previous column is fed as input and
// the next column is the prediction target. A row contributes its first
// length-2 step losses to its final scalar; both boundary positions are
// excluded by that exact offset, and padded positions never count.
func (s *PerplexityScorer) LogPerplexity(b batch.Batch) ([]float64, error) {
	if len(b.IDs) != len(b.Lengths) {
		return nil, invalidParam("lengths", len(b.Lengths))
	}
	n := b.Size()
	if n == 0 {
		return []float64{}, nil
	}
	width := b.MaxLen()
	for i, l := range b.Lengths {
		if l < 0 || l > width {
			return nil, invalidParam("lengths", l)
		}
		if len(b.IDs[i]) != width {
			return nil, invalidParam("ids", i)
		}
	}
	if width < 2 {
		return make([]float64, n), nil
	}

	// Shift left by one to drop the leading boundary token.
	rows := make([][]int, n)
	lens := make([]int, n)
	maxLen := 0
	for i := range b.IDs {
		rows[i] = b.IDs[i][1:]
		lens[i] = b.Lengths[i] - 1
		if lens[i] > maxLen {
			maxLen = lens[i]
		}
	}

	steps := maxLen - 1
	losses := make([][]float64, n)
	state := s.Model.ZeroState(n)
	x := make([]int, n)
	for j := 0; j < steps; j++ {
		for i := range rows {
			x[i] = rows[i][j]
		}
		dists, next, err := s.Model.StepBatch(x, state)
		if err != nil {
			return nil, fmt.Errorf("score step %d: %w", j, err)
		}
		state = next
		for i := range rows {
			target := rows[i][j+1]
			losses[i] = append(losses[i], -math.Log(dists[i][target]))
		}
	}

	// Keep the first length-2 steps of each row; the final trim excludes
	// both boundary tokens from the sum.
	res := make([]float64, n)
	for i := range losses {
		keep := lens[i] - 2
		if keep > len(losses[i]) {
			keep = len(losses[i])
		}
		for j := 0; j < keep; j++ {
			res[i] += losses[i][j]
		}
	}
	return res, nil
}
