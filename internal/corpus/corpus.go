// Package corpus loads SNLI-style sentence corpora and prepares
// next-token training windows for the language model.
package corpus

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/siyutao/adversarial-nli/internal/batch"
	"github.com/siyutao/adversarial-nli/internal/vocab"
)

type corpusLine struct {
	Sentence1 string `json:"sentence1"`
	Sentence2 string `json:"sentence2"`
}

// Load reads a .jsonl or .jsonl.gz corpus and returns one lowercased
// sentence per non-empty sentence1/sentence2 field, in file order.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("corpus: gunzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	sentences, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("corpus: %s: %w", path, err)
	}
	return sentences, nil
}

// Read parses jsonl records from r. Blank lines are skipped; malformed
// lines fail with their line number.
func Read(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var out []string
	n := 0
	for sc.Scan() {
		n++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var l corpusLine
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		for _, s := range []string{l.Sentence1, l.Sentence2} {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				out = append(out, s)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", n, err)
	}
	return out, nil
}

// Tokenize splits a sentence into lowercased whitespace tokens.
func Tokenize(sentence string) []string {
	return strings.Fields(strings.ToLower(sentence))
}

// Counts tallies token frequencies across sentences. Feed the result to
// vocab.Build.
func Counts(sentences []string) map[string]int {
	counts := make(map[string]int)
	for _, s := range sentences {
		for _, t := range Tokenize(s) {
			counts[t]++
		}
	}
	return counts
}

// EncodeStream flattens sentences into a single id stream, each sentence
// wrapped in BOS/EOS markers.
func EncodeStream(v *vocab.Vocabulary, sentences []string) []int {
	var ids []int
	for _, s := range sentences {
		ids = append(ids, vocab.BosID)
		for _, t := range Tokenize(s) {
			ids = append(ids, v.Encode(t))
		}
		ids = append(ids, vocab.EosID)
	}
	return ids
}

// Window is one truncated-backprop training slice: Y[r][t] is the token
// following X[r][t] in the stream.
type Window struct {
	X [][]int
	Y [][]int
}

// Windows splits an id stream into batchSize parallel rows and chops them
// into windows of seqLen steps. Trailing ids that do not fill a whole
// window are dropped. Row r of every window continues row r of the
// previous one, so a recurrent state carried across windows stays aligned.
func Windows(ids []int, batchSize, seqLen int) ([]Window, error) {
	if batchSize < 1 {
		return nil, &batch.InvalidParameterError{Param: "batchSize", Value: batchSize}
	}
	if seqLen < 1 {
		return nil, &batch.InvalidParameterError{Param: "seqLen", Value: seqLen}
	}
	usable := (len(ids) - 1) / batchSize
	if usable < 1 {
		return nil, &batch.InvalidParameterError{Param: "ids", Value: len(ids)}
	}

	x := make([][]int, batchSize)
	y := make([][]int, batchSize)
	for r := range x {
		x[r] = ids[r*usable : r*usable+usable]
		y[r] = ids[r*usable+1 : r*usable+usable+1]
	}

	steps := usable / seqLen
	windows := make([]Window, 0, steps)
	for w := 0; w < steps; w++ {
		win := Window{X: make([][]int, batchSize), Y: make([][]int, batchSize)}
		for r := range win.X {
			win.X[r] = x[r][w*seqLen : (w+1)*seqLen]
			win.Y[r] = y[r][w*seqLen : (w+1)*seqLen]
		}
		windows = append(windows, win)
	}
	return windows, nil
}
