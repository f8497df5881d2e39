package decode

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/siyutao/adversarial-nli/internal/model"
	"github.com/siyutao/adversarial-nli/internal/vocab"
)

func TestGenerateGreedyDeterministic(t *testing.T) {
	v := testVocab(t)
	tbl := testTable(t)

	g1 := NewGenerator(tbl, v, rand.New(rand.NewSource(1)))
	g2 := NewGenerator(tbl, v, rand.New(rand.NewSource(99)))

	out1, err := g1.Generate("cat", 3, Greedy)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out2, err := g2.Generate("cat", 3, Greedy)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !reflect.DeepEqual(out1, out2) {
		t.Errorf("greedy output depends on the random source: %v vs %v", out1, out2)
	}
	// cat -> sat (0.7), sat -> EOS (0.6), EOS row is uniform -> PAD (argmax
	// tie prefers the lowest id).
	want := []string{"sat", vocab.EosToken, vocab.PadToken}
	if !reflect.DeepEqual(out1, want) {
		t.Errorf("greedy output = %v, want %v", out1, want)
	}
}

func TestGenerateExactLength(t *testing.T) {
	v := testVocab(t)
	g := NewGenerator(testTable(t), v, rand.New(rand.NewSource(3)))
	for _, num := range []int{0, 1, 7} {
		out, err := g.Generate("cat sat", num, Stochastic)
		if err != nil {
			t.Fatalf("Generate(num=%d): %v", num, err)
		}
		if len(out) != num {
			t.Errorf("Generate(num=%d) returned %d tokens", num, len(out))
		}
	}
}

func TestGenerateNegativeNum(t *testing.T) {
	g := NewGenerator(testTable(t), testVocab(t), rand.New(rand.NewSource(1)))
	_, err := g.Generate("cat", -1, Greedy)
	var ip *InvalidParameterError
	if !errors.As(err, &ip) {
		t.Fatalf("want InvalidParameterError, got %v", err)
	}
	if ip.Param != "num" {
		t.Errorf("offending parameter = %q, want num", ip.Param)
	}
}

func TestGenerateUnknownPolicy(t *testing.T) {
	g := NewGenerator(testTable(t), testVocab(t), rand.New(rand.NewSource(1)))
	if _, err := g.Generate("cat", 1, Policy("nucleus")); err == nil {
		t.Fatal("unknown policy should fail")
	}
}

func TestGenerateEmptySeedFallback(t *testing.T) {
	v := testVocab(t)
	tbl := testTable(t)
	for _, seed := range []string{"", "   "} {
		a, err := NewGenerator(tbl, v, rand.New(rand.NewSource(11))).Generate(seed, 4, Stochastic)
		if err != nil {
			t.Fatalf("Generate(%q): %v", seed, err)
		}
		b, err := NewGenerator(tbl, v, rand.New(rand.NewSource(11))).Generate(seed, 4, Stochastic)
		if err != nil {
			t.Fatalf("Generate(%q): %v", seed, err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("same random seed must reproduce the run: %v vs %v", a, b)
		}
		if len(a) != 4 {
			t.Errorf("emitted %d tokens, want 4", len(a))
		}
	}
}

func TestGenerateUnknownSeedTokens(t *testing.T) {
	// Unknown seed words encode to UNK rather than failing.
	g := NewGenerator(testTable(t), testVocab(t), rand.New(rand.NewSource(2)))
	if _, err := g.Generate("zebra jumps", 2, Greedy); err != nil {
		t.Fatalf("unknown seed tokens must not fail: %v", err)
	}
}

func TestGenerateStepFailurePropagates(t *testing.T) {
	fm := &failModel{}
	g := NewGenerator(fm, testVocab(t), rand.New(rand.NewSource(1)))
	_, err := g.Generate("cat sat", 1, Greedy)
	if !errors.Is(err, errStub) {
		t.Fatalf("step failure must propagate, got %v", err)
	}
}

func TestHybridMatchesGreedyWithoutNewline(t *testing.T) {
	v := testVocab(t) // no newline token in this vocabulary
	tbl := testTable(t)
	greedy, err := NewGenerator(tbl, v, rand.New(rand.NewSource(1))).Generate("cat", 5, Greedy)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	hybrid, err := NewGenerator(tbl, v, rand.New(rand.NewSource(2))).Generate("cat", 5, Hybrid)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !reflect.DeepEqual(greedy, hybrid) {
		t.Errorf("hybrid should reduce to greedy without line breaks: %v vs %v", hybrid, greedy)
	}
}

func TestHybridSamplesAfterNewline(t *testing.T) {
	// Vocabulary {.., a:4, \n:5}. After "a" greedy picks the newline; after
	// the newline the stochastic branch draws from a one-hot row, so the
	// whole run is deterministic and exercises both branches.
	v, err := vocab.New([]string{"a", "\n"})
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}
	u := 1.0 / 6
	tbl, err := model.NewTable([][]float64{
		{u, u, u, u, u, u},
		{u, u, u, u, u, u},
		{u, u, u, u, u, u},
		{u, u, u, u, u, u},
		{0, 0, 0, 0, 0.3, 0.7}, // a -> \n under argmax
		{0, 0, 0, 0, 1.0, 0.0}, // \n -> a, one-hot
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	g := NewGenerator(tbl, v, rand.New(rand.NewSource(5)))
	out, err := g.Generate("a", 4, Hybrid)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []string{"\n", "a", "\n", "a"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("hybrid run = %q, want %q", out, want)
	}
}
