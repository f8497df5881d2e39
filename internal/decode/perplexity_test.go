package decode

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/siyutao/adversarial-nli/internal/batch"
	"github.com/siyutao/adversarial-nli/internal/model"
)

func TestScoreSpecScenario(t *testing.T) {
	// Sequence BOS,cat,sat,EOS: after dropping the boundary token and the
	// two-position trim, the only counted transition is sat-from-cat.
	s := &PerplexityScorer{Model: testTable(t)}
	got, err := s.Score([][]int{{1, 4, 5, 2}})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := -math.Log(0.7)
	if len(got) != 1 || math.Abs(got[0]-want) > 1e-12 {
		t.Fatalf("Score = %v, want [%v]", got, want)
	}
}

func TestScoreEmptyBatch(t *testing.T) {
	fm := &failModel{}
	s := &PerplexityScorer{Model: fm}
	got, err := s.Score(nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("empty batch should produce an empty result, got %v", got)
	}
	if fm.calls != 0 {
		t.Fatalf("empty batch must not invoke the model (%d calls)", fm.calls)
	}
}

func TestScoreBatchOrderInvariant(t *testing.T) {
	s := &PerplexityScorer{Model: testTable(t)}
	a := []int{1, 4, 5, 2}
	b := []int{1, 5, 4, 2}

	ab, err := s.Score([][]int{a, b})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	ba, err := s.Score([][]int{b, a})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(ab[0]-ba[1]) > 1e-12 || math.Abs(ab[1]-ba[0]) > 1e-12 {
		t.Errorf("scores depend on batch order: %v vs %v", ab, ba)
	}
}

func TestScoreRaggedBatchMatchesSingles(t *testing.T) {
	// Shorter rows are padded; their padding steps must not leak into the
	// sums.
	s := &PerplexityScorer{Model: testTable(t)}
	rows := [][]int{
		{1, 4, 5, 4, 5, 2},
		{1, 5, 4, 2},
		{1, 4, 2},
	}
	batched, err := s.Score(rows)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i, row := range rows {
		single, err := s.Score([][]int{row})
		if err != nil {
			t.Fatalf("Score single: %v", err)
		}
		if math.Abs(batched[i]-single[0]) > 1e-12 {
			t.Errorf("row %d: batched %v != single %v", i, batched[i], single[0])
		}
	}
	// The three-token row has no interior transition left after trimming.
	if batched[2] != 0 {
		t.Errorf("trimmed-out row should score 0, got %v", batched[2])
	}
}

func TestScoreHandComputedRagged(t *testing.T) {
	// {1,5,4,2}: shifted to {5,4,2}; steps score 4-from-5 and EOS-from-4,
	// but the final trim keeps only the first length-2 = 1 of them.
	s := &PerplexityScorer{Model: testTable(t)}
	got, err := s.Score([][]int{{1, 5, 4, 2}})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := -math.Log(0.4)
	if math.Abs(got[0]-want) > 1e-12 {
		t.Errorf("Score = %v, want %v", got[0], want)
	}
}

func TestLogPerplexityInvalidBatch(t *testing.T) {
	s := &PerplexityScorer{Model: testTable(t)}
	_, err := s.LogPerplexity(batch.Batch{
		IDs:     [][]int{{1, 4, 5, 2}},
		Lengths: []int{4, 3},
	})
	var ip *InvalidParameterError
	if !errors.As(err, &ip) {
		t.Fatalf("want InvalidParameterError, got %v", err)
	}
}

func TestScoreDegenerateShortRows(t *testing.T) {
	s := &PerplexityScorer{Model: testTable(t)}
	got, err := s.Score([][]int{{1}, {1, 2}})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{0, 0}) {
		t.Errorf("degenerate rows = %v, want zeros", got)
	}
}

func TestScoreFailurePropagates(t *testing.T) {
	s := &PerplexityScorer{Model: &failModel{}}
	if _, err := s.Score([][]int{{1, 4, 5, 2}}); !errors.Is(err, errStub) {
		t.Fatalf("step failure must propagate, got %v", err)
	}
}

func TestScoreStatefulModelCarriesPerRowState(t *testing.T) {
	// With a stateful model, batched scoring must agree with scoring each
	// row on its own: every row carries its own hidden state.
	m := model.NewRNN(6, 3, 4, 13)
	s := &PerplexityScorer{Model: m}
	rows := [][]int{
		{1, 4, 5, 4, 2},
		{1, 5, 5, 2},
	}
	batched, err := s.Score(rows)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i, row := range rows {
		single, err := s.Score([][]int{row})
		if err != nil {
			t.Fatalf("Score single: %v", err)
		}
		if math.Abs(batched[i]-single[0]) > 1e-9 {
			t.Errorf("row %d: batched %v != single %v", i, batched[i], single[0])
		}
	}
}
