package decode

import (
	"fmt"
	"math/rand"

	"github.com/siyutao/adversarial-nli/internal/model"
	"github.com/siyutao/adversarial-nli/internal/vocab"
)

// Generator drives one sequence forward from a seed prefix, emitting a
// fixed number of tokens under a pluggable sampling policy.
//
// The random source is passed explicitly so stochastic runs are
// reproducible; greedy runs are deterministic regardless.
type Generator struct {
	Model model.StepModel
	Vocab *vocab.Vocabulary
	Rand  *rand.Rand
}

// NewGenerator wires a generator over a model and vocabulary. A nil rng
// falls back to an unseeded source.
func NewGenerator(m model.StepModel, v *vocab.Vocabulary, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Generator{Model: m, Vocab: v, Rand: rng}
}

// Generate emits exactly num tokens after the seed prefix. An empty or
// whitespace-only seed is replaced by a single uniformly random vocabulary
// token before priming. Every seed token except the last only advances
// state; the last becomes the first emission input.
func (g *Generator) Generate(seedText string, num int, policy Policy) ([]string, error) {
	if num < 0 {
		return nil, invalidParam("num", num)
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}

	ids := g.Vocab.EncodeWords(seedText)
	if len(ids) == 0 {
		ids = []int{g.Vocab.Random(g.Rand)}
	}

	state := g.Model.ZeroState(1)
	var err error
	for _, id := range ids[:len(ids)-1] {
		if _, state, err = g.Model.Step(id, state); err != nil {
			return nil, fmt.Errorf("prime seed: %w", err)
		}
	}

	newline := g.Vocab.NewlineID()
	cur := ids[len(ids)-1]
	out := make([]string, 0, num)
	for n := 0; n < num; n++ {
		var dist []float64
		if dist, state, err = g.Model.Step(cur, state); err != nil {
			return nil, fmt.Errorf("generate token %d: %w", n, err)
		}

		var id int
		switch policy {
		case Greedy:
			id = argmax(dist)
		case Hybrid:
			if cur == newline {
				id = weightedPick(dist, g.Rand.Float64()*sumMass(dist))
			} else {
				id = argmax(dist)
			}
		default: // Stochastic
			id = weightedPick(dist, g.Rand.Float64()*sumMass(dist))
		}

		id = clampID(id, g.Model.VocabSize())
		out = append(out, g.Vocab.Token(id))
		cur = id
	}
	return out, nil
}
