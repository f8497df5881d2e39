package model

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/goccy/go-json"
)

// RNN is a single-layer tanh recurrent language model: token embedding,
// recurrent cell, softmax projection over the vocabulary. Its hidden vector
// is the State carried between steps.
type RNN struct {
	Vocab  int
	Embed  int
	Hidden int

	// Flat parameter tensors.
	Emb []float64 // [Vocab x Embed]
	Wxh []float64 // [Embed x Hidden]
	Whh []float64 // [Hidden x Hidden]
	Bh  []float64 // [Hidden]
	Who []float64 // [Hidden x Vocab]
	Bo  []float64 // [Vocab]

	grads *rnnGrads
}

type rnnGrads struct {
	emb, wxh, whh, bh, who, bo []float64
}

// NewRNN constructs a model with Xavier-style uniform initialisation derived
// from seed. Biases start at zero.
func NewRNN(vocabSize, embed, hidden int, seed int64) *RNN {
	rng := rand.New(rand.NewSource(seed))
	m := &RNN{
		Vocab:  vocabSize,
		Embed:  embed,
		Hidden: hidden,
		Emb:    make([]float64, vocabSize*embed),
		Wxh:    make([]float64, embed*hidden),
		Whh:    make([]float64, hidden*hidden),
		Bh:     make([]float64, hidden),
		Who:    make([]float64, hidden*vocabSize),
		Bo:     make([]float64, vocabSize),
	}
	fillUniform(rng, m.Emb, vocabSize, embed)
	fillUniform(rng, m.Wxh, embed, hidden)
	fillUniform(rng, m.Whh, hidden, hidden)
	fillUniform(rng, m.Who, hidden, vocabSize)
	return m
}

func fillUniform(rng *rand.Rand, w []float64, fanIn, fanOut int) {
	s := math.Sqrt(6.0 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * s
	}
}

type rnnState struct {
	h [][]float64 // one hidden vector per batch row
}

func (s *rnnState) Clone() State {
	h := make([][]float64, len(s.h))
	for i, row := range s.h {
		h[i] = append([]float64(nil), row...)
	}
	return &rnnState{h: h}
}

func (m *RNN) VocabSize() int { return m.Vocab }

func (m *RNN) ZeroState(batchSize int) State {
	h := make([][]float64, batchSize)
	for i := range h {
		h[i] = make([]float64, m.Hidden)
	}
	return &rnnState{h: h}
}

// stepRow advances one row: next hidden vector and next-token distribution.
func (m *RNN) stepRow(token int, hprev []float64) ([]float64, []float64) {
	E, H, V := m.Embed, m.Hidden, m.Vocab
	emb := m.Emb[token*E : (token+1)*E]

	h := make([]float64, H)
	for j := 0; j < H; j++ {
		pre := m.Bh[j]
		for i := 0; i < E; i++ {
			pre += emb[i] * m.Wxh[i*H+j]
		}
		for i := 0; i < H; i++ {
			pre += hprev[i] * m.Whh[i*H+j]
		}
		h[j] = math.Tanh(pre)
	}

	logits := make([]float64, V)
	copy(logits, m.Bo)
	for j := 0; j < H; j++ {
		hj := h[j]
		row := m.Who[j*V : (j+1)*V]
		for v := 0; v < V; v++ {
			logits[v] += hj * row[v]
		}
	}
	softmaxInPlace(logits)
	return h, logits
}

func softmaxInPlace(x []float64) {
	maxv := x[0]
	for _, v := range x[1:] {
		if v > maxv {
			maxv = v
		}
	}
	sum := 0.0
	for i, v := range x {
		e := math.Exp(v - maxv)
		x[i] = e
		sum += e
	}
	inv := 1.0 / sum
	for i := range x {
		x[i] *= inv
	}
}

func (m *RNN) Step(token int, st State) ([]float64, State, error) {
	rs, ok := st.(*rnnState)
	if !ok || len(rs.h) != 1 {
		return nil, nil, fmt.Errorf("rnn: state shape does not match single-row step")
	}
	if token < 0 || token >= m.Vocab {
		return nil, nil, fmt.Errorf("rnn: token %d out of range [0,%d)", token, m.Vocab)
	}
	h, dist := m.stepRow(token, rs.h[0])
	return dist, &rnnState{h: [][]float64{h}}, nil
}

func (m *RNN) StepBatch(tokens []int, st State) ([][]float64, State, error) {
	rs, ok := st.(*rnnState)
	if !ok || len(rs.h) != len(tokens) {
		return nil, nil, fmt.Errorf("rnn: state shape does not match batch of %d", len(tokens))
	}
	dists := make([][]float64, len(tokens))
	next := &rnnState{h: make([][]float64, len(tokens))}
	for i, tok := range tokens {
		if tok < 0 || tok >= m.Vocab {
			return nil, nil, fmt.Errorf("rnn: token %d out of range [0,%d)", tok, m.Vocab)
		}
		next.h[i], dists[i] = m.stepRow(tok, rs.h[i])
	}
	return dists, next, nil
}

type rnnFile struct {
	Vocab  int       `json:"vocab"`
	Embed  int       `json:"embed"`
	Hidden int       `json:"hidden"`
	Emb    []float64 `json:"emb"`
	Wxh    []float64 `json:"wxh"`
	Whh    []float64 `json:"whh"`
	Bh     []float64 `json:"bh"`
	Who    []float64 `json:"who"`
	Bo     []float64 `json:"bo"`
}

// Save writes the model configuration and weights as JSON.
func (m *RNN) Save(path string) error {
	data, err := json.Marshal(rnnFile{
		Vocab: m.Vocab, Embed: m.Embed, Hidden: m.Hidden,
		Emb: m.Emb, Wxh: m.Wxh, Whh: m.Whh, Bh: m.Bh, Who: m.Who, Bo: m.Bo,
	})
	if err != nil {
		return fmt.Errorf("rnn: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadRNN reads a checkpoint written by Save.
func LoadRNN(path string) (*RNN, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rnn: read %s: %w", path, err)
	}
	var f rnnFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("rnn: parse %s: %w", path, err)
	}
	m := &RNN{
		Vocab: f.Vocab, Embed: f.Embed, Hidden: f.Hidden,
		Emb: f.Emb, Wxh: f.Wxh, Whh: f.Whh, Bh: f.Bh, Who: f.Who, Bo: f.Bo,
	}
	if err := m.validateShapes(); err != nil {
		return nil, fmt.Errorf("rnn: %s: %w", path, err)
	}
	return m, nil
}

func (m *RNN) validateShapes() error {
	checks := []struct {
		name string
		got  int
		want int
	}{
		{"emb", len(m.Emb), m.Vocab * m.Embed},
		{"wxh", len(m.Wxh), m.Embed * m.Hidden},
		{"whh", len(m.Whh), m.Hidden * m.Hidden},
		{"bh", len(m.Bh), m.Hidden},
		{"who", len(m.Who), m.Hidden * m.Vocab},
		{"bo", len(m.Bo), m.Vocab},
	}
	for _, c := range checks {
		if c.got != c.want {
			return fmt.Errorf("tensor %s has %d values, want %d", c.name, c.got, c.want)
		}
	}
	return nil
}
