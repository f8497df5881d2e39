package decode

import (
	"errors"
	"testing"

	"github.com/siyutao/adversarial-nli/internal/model"
	"github.com/siyutao/adversarial-nli/internal/vocab"
)

// testVocab is {PAD:0, BOS:1, EOS:2, UNK:3, cat:4, sat:5}.
func testVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New([]string{"cat", "sat"})
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}
	return v
}

// testTable is a stateless lookup stub over the test vocabulary. The only
// interesting rows are BOS, cat and sat; the rest are uniform.
func testTable(t *testing.T) *model.Table {
	t.Helper()
	u := 1.0 / 6
	tbl, err := model.NewTable([][]float64{
		{u, u, u, u, u, u},             // PAD
		{0, 0, 0, 0, 0.9, 0.1},         // BOS -> cat
		{u, u, u, u, u, u},             // EOS
		{u, u, u, u, u, u},             // UNK
		{0, 0, 0.2, 0, 0.1, 0.7},       // cat -> sat
		{0.0, 0, 0.6, 0, 0.4, 0},       // sat -> EOS
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return tbl
}

// failModel counts invocations and fails every call.
type failModel struct {
	calls int
}

var errStub = errors.New("stub failure")

type nilState struct{}

func (nilState) Clone() model.State { return nilState{} }

func (f *failModel) Step(int, model.State) ([]float64, model.State, error) {
	f.calls++
	return nil, nil, errStub
}

func (f *failModel) StepBatch([]int, model.State) ([][]float64, model.State, error) {
	f.calls++
	return nil, nil, errStub
}

func (f *failModel) ZeroState(int) model.State { return nilState{} }
func (f *failModel) VocabSize() int            { return 6 }

func TestParsePolicy(t *testing.T) {
	for _, s := range []string{"greedy", "stochastic", "hybrid"} {
		if _, err := ParsePolicy(s); err != nil {
			t.Errorf("ParsePolicy(%q): %v", s, err)
		}
	}
	if _, err := ParsePolicy("nucleus"); err == nil {
		t.Error("unknown policy should fail")
	}
}

func TestArgmax(t *testing.T) {
	cases := []struct {
		dist []float64
		want int
	}{
		{[]float64{0.1, 0.7, 0.2}, 1},
		{[]float64{0.5, 0.5}, 0}, // tie prefers the lower id
		{[]float64{1}, 0},
	}
	for _, c := range cases {
		if got := argmax(c.dist); got != c.want {
			t.Errorf("argmax(%v) = %d, want %d", c.dist, got, c.want)
		}
	}
}

func TestWeightedPick(t *testing.T) {
	dist := []float64{0.2, 0.3, 0.5}
	cases := []struct {
		u    float64
		want int
	}{
		{0.0, 0},
		{0.19, 0},
		{0.2, 1}, // prefix sum must strictly exceed the draw
		{0.49, 1},
		{0.5, 2},
		{0.99, 2},
	}
	for _, c := range cases {
		if got := weightedPick(dist, c.u); got != c.want {
			t.Errorf("weightedPick(%v) = %d, want %d", c.u, got, c.want)
		}
	}
	// One-hot rows pick the hot index for any draw inside the mass.
	if got := weightedPick([]float64{0, 1, 0}, 0.999); got != 1 {
		t.Errorf("one-hot pick = %d, want 1", got)
	}
}

func TestClampID(t *testing.T) {
	if clampID(-3, 6) != 0 || clampID(6, 6) != 5 || clampID(2, 6) != 2 {
		t.Error("clampID bounds wrong")
	}
}
