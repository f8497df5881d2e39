package vocab

import (
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReservedIDs(t *testing.T) {
	v, err := New([]string{"cat", "sat"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := []struct {
		token string
		id    int
	}{
		{PadToken, PadID},
		{BosToken, BosID},
		{EosToken, EosID},
		{UnkToken, UnkID},
		{"cat", 4},
		{"sat", 5},
	}
	for _, c := range cases {
		if got := v.Encode(c.token); got != c.id {
			t.Errorf("Encode(%q) = %d, want %d", c.token, got, c.id)
		}
		if got := v.Token(c.id); got != c.token {
			t.Errorf("Token(%d) = %q, want %q", c.id, got, c.token)
		}
	}
	if v.Size() != 6 {
		t.Errorf("Size() = %d, want 6", v.Size())
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	v, err := New([]string{"a", "man", "walks", "his", "dog"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for id := 0; id < v.Size(); id++ {
		if got := v.Encode(v.Token(id)); got != id {
			t.Errorf("Encode(Token(%d)) = %d", id, got)
		}
	}
	if got := v.Encode("zebra"); got != UnkID {
		t.Errorf("Encode(unknown) = %d, want %d", got, UnkID)
	}
	if got := v.Token(-1); got != UnkToken {
		t.Errorf("Token(-1) = %q, want %q", got, UnkToken)
	}
	if got := v.Token(v.Size()); got != UnkToken {
		t.Errorf("Token(out of range) = %q, want %q", got, UnkToken)
	}
}

func TestDuplicateToken(t *testing.T) {
	if _, err := New([]string{"cat", "cat"}); err == nil {
		t.Fatal("expected error for duplicate token")
	}
	if _, err := New([]string{UnkToken}); err == nil {
		t.Fatal("expected error for reserved token collision")
	}
}

func TestBuildDeterministic(t *testing.T) {
	counts := map[string]int{"dog": 3, "cat": 3, "rare": 1, "sat": 2}
	v := Build(counts, 2)
	want := []string{"cat", "dog", "sat"}
	got := make([]string, 0, 3)
	for id := 4; id < v.Size(); id++ {
		got = append(got, v.Token(id))
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build order = %v, want %v", got, want)
	}
	if v.Encode("rare") != UnkID {
		t.Errorf("below-minFreq token should encode to UNK")
	}
}

func TestEncodeWords(t *testing.T) {
	v, _ := New([]string{"the", "cat"})
	got := v.EncodeWords("  the cat sat  ")
	want := []int{4, 5, UnkID}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EncodeWords = %v, want %v", got, want)
	}
	if got := v.DecodeWords(want); got != "the cat <UNK>" {
		t.Errorf("DecodeWords = %q", got)
	}
	if got := v.EncodeWords("   "); len(got) != 0 {
		t.Errorf("whitespace-only input should encode to nothing, got %v", got)
	}
}

func TestNewlineID(t *testing.T) {
	v, _ := New([]string{"cat", "\n"})
	if v.NewlineID() != 5 {
		t.Errorf("NewlineID = %d, want 5", v.NewlineID())
	}
	v2, _ := New([]string{"cat"})
	if v2.NewlineID() != -1 {
		t.Errorf("NewlineID without newline token = %d, want -1", v2.NewlineID())
	}
}

func TestRandomInRange(t *testing.T) {
	v, _ := New([]string{"cat", "sat"})
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		id := v.Random(rng)
		if id < 0 || id >= v.Size() {
			t.Fatalf("Random out of range: %d", id)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	v, _ := New([]string{"cat", "sat", "on"})
	path := filepath.Join(t.TempDir(), "vocab.json")
	if err := v.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Size() != v.Size() {
		t.Fatalf("Size mismatch: %d vs %d", loaded.Size(), v.Size())
	}
	for id := 0; id < v.Size(); id++ {
		if loaded.Token(id) != v.Token(id) {
			t.Errorf("Token(%d) = %q, want %q", id, loaded.Token(id), v.Token(id))
		}
	}
}
