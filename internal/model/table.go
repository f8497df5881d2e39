package model

import "fmt"

// Table is a stateless StepModel backed by a fixed per-token distribution
// lookup. Row i is the next-token distribution after emitting token i. It is
// used by tests and as a rule-based predictor for hand-checked scoring.
type Table struct {
	dists [][]float64
}

// NewTable builds a table model. Every row must have exactly len(dists)
// entries, one distribution value per vocabulary id.
func NewTable(dists [][]float64) (*Table, error) {
	for i, row := range dists {
		if len(row) != len(dists) {
			return nil, fmt.Errorf("table: row %d has %d entries, want %d", i, len(row), len(dists))
		}
	}
	return &Table{dists: dists}, nil
}

type tableState struct{ rows int }

func (s tableState) Clone() State { return s }

func (t *Table) VocabSize() int { return len(t.dists) }

func (t *Table) ZeroState(batchSize int) State { return tableState{rows: batchSize} }

func (t *Table) Step(token int, st State) ([]float64, State, error) {
	if token < 0 || token >= len(t.dists) {
		return nil, nil, fmt.Errorf("table: token %d out of range [0,%d)", token, len(t.dists))
	}
	return t.dists[token], st, nil
}

func (t *Table) StepBatch(tokens []int, st State) ([][]float64, State, error) {
	ts, ok := st.(tableState)
	if !ok || ts.rows != len(tokens) {
		return nil, nil, fmt.Errorf("table: state shape does not match batch of %d", len(tokens))
	}
	dists := make([][]float64, len(tokens))
	for i, tok := range tokens {
		d, _, err := t.Step(tok, st)
		if err != nil {
			return nil, nil, err
		}
		dists[i] = d
	}
	return dists, st, nil
}
