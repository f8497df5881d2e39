package vocab

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Reserved ids. Token enumeration from the corpus starts at index 4.
const (
	PadID = 0
	BosID = 1
	EosID = 2
	UnkID = 3
)

const (
	PadToken = "<PAD>"
	BosToken = "<BOS>"
	EosToken = "<EOS>"
	UnkToken = "<UNK>"
)

// Vocabulary is a bidirectional token/id mapping with reserved ids.
// It is read-only after construction and safe for concurrent use.
type Vocabulary struct {
	tokens  []string
	ids     map[string]int
	newline int
}

// New builds a vocabulary from corpus tokens in id order (id 4 onwards).
// Reserved markers are always present and must not appear in tokens.
func New(tokens []string) (*Vocabulary, error) {
	v := &Vocabulary{
		tokens:  make([]string, 0, len(tokens)+4),
		ids:     make(map[string]int, len(tokens)+4),
		newline: -1,
	}
	for _, t := range []string{PadToken, BosToken, EosToken, UnkToken} {
		v.ids[t] = len(v.tokens)
		v.tokens = append(v.tokens, t)
	}
	for _, t := range tokens {
		if _, ok := v.ids[t]; ok {
			return nil, fmt.Errorf("vocab: duplicate token %q", t)
		}
		v.ids[t] = len(v.tokens)
		v.tokens = append(v.tokens, t)
	}
	if id, ok := v.ids["\n"]; ok {
		v.newline = id
	}
	return v, nil
}

// Build constructs a vocabulary from token counts. Tokens below minFreq are
// dropped (they encode to UNK later). Ordering is by descending count, then
// lexicographic, so builds are deterministic.
func Build(counts map[string]int, minFreq int) *Vocabulary {
	kept := make([]string, 0, len(counts))
	for t, c := range counts {
		if c >= minFreq && t != "" {
			kept = append(kept, t)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if counts[kept[i]] != counts[kept[j]] {
			return counts[kept[i]] > counts[kept[j]]
		}
		return kept[i] < kept[j]
	})
	v, _ := New(kept)
	return v
}

// Size returns the number of ids, reserved ids included.
func (v *Vocabulary) Size() int { return len(v.tokens) }

// Encode maps a token to its id, falling back to UnkID for tokens outside
// the vocabulary. It never fails.
func (v *Vocabulary) Encode(token string) int {
	if id, ok := v.ids[token]; ok {
		return id
	}
	return UnkID
}

// Token returns the token for an id, or the UNK marker for ids outside
// [0, Size()).
func (v *Vocabulary) Token(id int) string {
	if id < 0 || id >= len(v.tokens) {
		return UnkToken
	}
	return v.tokens[id]
}

// EncodeWords splits text on whitespace and encodes each word.
func (v *Vocabulary) EncodeWords(text string) []int {
	fields := strings.Fields(text)
	ids := make([]int, len(fields))
	for i, f := range fields {
		ids[i] = v.Encode(f)
	}
	return ids
}

// DecodeWords joins the tokens for a sequence of ids with single spaces.
func (v *Vocabulary) DecodeWords(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v.Token(id))
	}
	return b.String()
}

// NewlineID returns the id of the newline token, or -1 when the corpus has
// none.
func (v *Vocabulary) NewlineID() int { return v.newline }

// Random draws a uniformly random id from the whole vocabulary. Used as the
// empty-seed fallback.
func (v *Vocabulary) Random(rng *rand.Rand) int {
	return rng.Intn(len(v.tokens))
}

type vocabFile struct {
	Tokens []string `json:"tokens"`
}

// Save writes the corpus tokens (reserved markers excluded) in id order.
func (v *Vocabulary) Save(path string) error {
	data, err := json.MarshalIndent(vocabFile{Tokens: v.tokens[4:]}, "", "  ")
	if err != nil {
		return fmt.Errorf("vocab: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a vocabulary written by Save.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: read %s: %w", path, err)
	}
	var f vocabFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("vocab: parse %s: %w", path, err)
	}
	return New(f.Tokens)
}
