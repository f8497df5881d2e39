package train

import (
	"math"

	"github.com/siyutao/adversarial-nli/internal/model"
)

// Adagrad keeps a per-weight sum of squared gradients and scales each
// update by its inverse square root.
type Adagrad struct {
	LearnRate float64
	Epsilon   float64

	cache map[string][]float64
}

func NewAdagrad(learnRate float64) *Adagrad {
	return &Adagrad{
		LearnRate: learnRate,
		Epsilon:   1e-8,
		cache:     make(map[string][]float64),
	}
}

// Step applies one update from the accumulated gradients. Gradient buffers
// are left untouched; the caller zeroes them between windows.
func (o *Adagrad) Step(params []*model.Param) {
	for _, p := range params {
		c, ok := o.cache[p.Name]
		if !ok {
			c = make([]float64, len(p.W))
			o.cache[p.Name] = c
		}
		for i, g := range p.G {
			c[i] += g * g
			p.W[i] -= o.LearnRate * g / (math.Sqrt(c[i]) + o.Epsilon)
		}
	}
}

// ClipGradients rescales all gradients so their global L2 norm does not
// exceed maxNorm. Returns the norm before clipping. maxNorm <= 0 disables
// clipping.
func ClipGradients(params []*model.Param, maxNorm float64) float64 {
	var sq float64
	for _, p := range params {
		for _, g := range p.G {
			sq += g * g
		}
	}
	norm := math.Sqrt(sq)
	if maxNorm <= 0 || norm <= maxNorm {
		return norm
	}
	scale := maxNorm / norm
	for _, p := range params {
		for i := range p.G {
			p.G[i] *= scale
		}
	}
	return norm
}
