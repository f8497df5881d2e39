package model

import (
	"fmt"
	"math"
)

// Params exposes the flat parameter tensors and their gradient buffers for
// an optimizer. Gradient buffers are allocated on first use and reused.
func (m *RNN) Params() []*Param {
	m.ensureGrads()
	g := m.grads
	return []*Param{
		{Name: "emb", W: m.Emb, G: g.emb},
		{Name: "wxh", W: m.Wxh, G: g.wxh},
		{Name: "whh", W: m.Whh, G: g.whh},
		{Name: "bh", W: m.Bh, G: g.bh},
		{Name: "who", W: m.Who, G: g.who},
		{Name: "bo", W: m.Bo, G: g.bo},
	}
}

func (m *RNN) ensureGrads() {
	if m.grads != nil {
		return
	}
	m.grads = &rnnGrads{
		emb: make([]float64, len(m.Emb)),
		wxh: make([]float64, len(m.Wxh)),
		whh: make([]float64, len(m.Whh)),
		bh:  make([]float64, len(m.Bh)),
		who: make([]float64, len(m.Who)),
		bo:  make([]float64, len(m.Bo)),
	}
}

// ZeroGrad clears all gradient buffers.
func (m *RNN) ZeroGrad() {
	m.ensureGrads()
	for _, p := range m.Params() {
		for i := range p.G {
			p.G[i] = 0
		}
	}
}

func (m *RNN) checkWindow(x, y [][]int, st State) (*rnnState, int, error) {
	rs, ok := st.(*rnnState)
	if !ok {
		return nil, 0, fmt.Errorf("rnn: unexpected state type %T", st)
	}
	if len(x) != len(y) || len(x) != len(rs.h) {
		return nil, 0, fmt.Errorf("rnn: window batch %d/%d does not match state of %d rows", len(x), len(y), len(rs.h))
	}
	if len(x) == 0 {
		return rs, 0, nil
	}
	T := len(x[0])
	for b := range x {
		if len(x[b]) != T || len(y[b]) != T {
			return nil, 0, fmt.Errorf("rnn: ragged window at row %d", b)
		}
	}
	return rs, T, nil
}

// Loss returns the mean next-token cross-entropy over a [batch][steps]
// window, carrying hidden state across the window. Used for validation.
func (m *RNN) Loss(x, y [][]int, st State) (float64, State, error) {
	rs, T, err := m.checkWindow(x, y, st)
	if err != nil {
		return 0, nil, err
	}
	if len(x) == 0 || T == 0 {
		return 0, st, nil
	}
	next := &rnnState{h: make([][]float64, len(x))}
	total := 0.0
	for b := range x {
		h := rs.h[b]
		for t := 0; t < T; t++ {
			var p []float64
			h, p = m.stepRow(x[b][t], h)
			total += negLog(p[y[b][t]])
		}
		next.h[b] = h
	}
	return total / float64(len(x)*T), next, nil
}

// Backprop runs truncated backpropagation through a [batch][steps] window,
// accumulating parameter gradients for the mean cross-entropy loss. The
// returned state is the carried hidden state after the window; the input
// state is left untouched.
func (m *RNN) Backprop(x, y [][]int, st State) (float64, State, error) {
	rs, T, err := m.checkWindow(x, y, st)
	if err != nil {
		return 0, nil, err
	}
	if len(x) == 0 || T == 0 {
		return 0, st, nil
	}
	m.ensureGrads()
	E, H, V := m.Embed, m.Hidden, m.Vocab
	B := len(x)
	inv := 1.0 / float64(B*T)
	g := m.grads

	next := &rnnState{h: make([][]float64, B)}
	total := 0.0

	for b := 0; b < B; b++ {
		// Forward pass with caches.
		hs := make([][]float64, T+1)
		ps := make([][]float64, T)
		hs[0] = rs.h[b]
		for t := 0; t < T; t++ {
			hs[t+1], ps[t] = m.stepRow(x[b][t], hs[t])
			total += negLog(ps[t][y[b][t]])
		}
		next.h[b] = hs[T]

		// Backward pass.
		dhNext := make([]float64, H)
		for t := T - 1; t >= 0; t-- {
			tok := x[b][t]
			emb := m.Emb[tok*E : (tok+1)*E]
			h, hprev := hs[t+1], hs[t]

			dlogit := make([]float64, V)
			for v := 0; v < V; v++ {
				dlogit[v] = ps[t][v] * inv
			}
			dlogit[y[b][t]] -= inv

			dh := dhNext
			for j := 0; j < H; j++ {
				row := m.Who[j*V : (j+1)*V]
				grow := g.who[j*V : (j+1)*V]
				hj := h[j]
				sum := dh[j]
				for v := 0; v < V; v++ {
					grow[v] += hj * dlogit[v]
					sum += row[v] * dlogit[v]
				}
				dh[j] = sum
			}
			for v := 0; v < V; v++ {
				g.bo[v] += dlogit[v]
			}

			dpre := make([]float64, H)
			for j := 0; j < H; j++ {
				dpre[j] = dh[j] * (1 - h[j]*h[j])
				g.bh[j] += dpre[j]
			}
			for i := 0; i < E; i++ {
				row := m.Wxh[i*H : (i+1)*H]
				grow := g.wxh[i*H : (i+1)*H]
				var dembI float64
				for j := 0; j < H; j++ {
					grow[j] += emb[i] * dpre[j]
					dembI += row[j] * dpre[j]
				}
				g.emb[tok*E+i] += dembI
			}
			dhPrev := make([]float64, H)
			for i := 0; i < H; i++ {
				row := m.Whh[i*H : (i+1)*H]
				grow := g.whh[i*H : (i+1)*H]
				var sum float64
				for j := 0; j < H; j++ {
					grow[j] += hprev[i] * dpre[j]
					sum += row[j] * dpre[j]
				}
				dhPrev[i] = sum
			}
			dhNext = dhPrev
		}
	}
	return total * inv, next, nil
}

func negLog(p float64) float64 {
	// The softmax guarantees p > 0; guard against exact underflow so a
	// single denormal probability cannot turn a window loss into +Inf.
	if p < 1e-300 {
		p = 1e-300
	}
	return -math.Log(p)
}
