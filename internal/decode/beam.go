package decode

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/siyutao/adversarial-nli/internal/model"
	"github.com/siyutao/adversarial-nli/internal/vocab"
)

// Hypothesis is one candidate sequence tracked during beam search: its
// token ids, cumulative log-probability and carried model state.
type Hypothesis struct {
	Tokens []int
	Score  float64
	State  model.State
}

// BeamSearch explores the k highest-scoring completions of a seed prefix
// under a bounded number of expansion rounds.
type BeamSearch struct {
	Model model.StepModel
	Vocab *vocab.Vocabulary
	Rand  *rand.Rand

	// EOS stops the search once a surviving hypothesis emits it. Set to -1
	// to disable.
	EOS int
}

// NewBeamSearch wires a beam search with EOS taken from the vocabulary's
// end-of-sequence marker. A nil rng falls back to an unseeded source.
func NewBeamSearch(m model.StepModel, v *vocab.Vocabulary, rng *rand.Rand) *BeamSearch {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &BeamSearch{Model: m, Vocab: v, Rand: rng, EOS: vocab.EosID}
}

type candidate struct {
	parent int
	token  int
	score  float64
	state  model.State
}

// Search runs up to maxsample expansion rounds from the seed and returns
// the surviving hypotheses' token sequences and cumulative scores in beam
// order. The result is not sorted by score; callers select the hypothesis
// they want (typically the maximum-score one).
func (b *BeamSearch) Search(seedText string, k, maxsample int) ([][]int, []float64, error) {
	if k < 1 {
		return nil, nil, invalidParam("k", k)
	}
	if maxsample < 1 {
		return nil, nil, invalidParam("maxsample", maxsample)
	}

	ids := b.Vocab.EncodeWords(seedText)
	if len(ids) == 0 {
		ids = []int{b.Vocab.Random(b.Rand)}
	}

	state := b.Model.ZeroState(1)
	var err error
	for _, id := range ids[:len(ids)-1] {
		if _, state, err = b.Model.Step(id, state); err != nil {
			return nil, nil, fmt.Errorf("prime seed: %w", err)
		}
	}

	live := []Hypothesis{{Tokens: ids, Score: 0, State: state}}
	done := false
	for round := 0; round < maxsample && !done; round++ {
		cands := make([]candidate, 0, len(live)*b.Model.VocabSize())
		for pi, h := range live {
			dist, next, err := b.Model.Step(h.Tokens[len(h.Tokens)-1], h.State)
			if err != nil {
				return nil, nil, fmt.Errorf("expand round %d: %w", round, err)
			}
			// Children share the parent's next state; they only read it.
			for id, p := range dist {
				cands = append(cands, candidate{parent: pi, token: id, score: h.Score + math.Log(p), state: next})
			}
		}

		// Global top-k across all parents. Ties prefer the earlier parent in
		// the previous beam, then the lower token id.
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].score != cands[j].score {
				return cands[i].score > cands[j].score
			}
			if cands[i].parent != cands[j].parent {
				return cands[i].parent < cands[j].parent
			}
			return cands[i].token < cands[j].token
		})
		if len(cands) > k {
			cands = cands[:k]
		}

		next := make([]Hypothesis, len(cands))
		for i, c := range cands {
			parent := live[c.parent]
			tokens := make([]int, len(parent.Tokens)+1)
			copy(tokens, parent.Tokens)
			tokens[len(parent.Tokens)] = c.token
			// Each survivor forks with its own state snapshot so sibling
			// branches can never observe each other's updates.
			next[i] = Hypothesis{Tokens: tokens, Score: c.score, State: c.state.Clone()}
			if c.token == b.EOS {
				done = true
			}
		}
		live = next
	}

	seqs := make([][]int, len(live))
	scores := make([]float64, len(live))
	for i, h := range live {
		seqs[i] = h.Tokens
		scores[i] = h.Score
	}
	return seqs, scores, nil
}
