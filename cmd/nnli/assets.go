package main

import (
	"fmt"
	"os"

	"github.com/siyutao/adversarial-nli/internal/model"
	"github.com/siyutao/adversarial-nli/internal/vocab"
)

// loadAssets opens the model checkpoint and vocabulary named by the
// --model/--vocab flags and checks that they agree on vocabulary size.
func loadAssets() (*model.RNN, *vocab.Vocabulary, error) {
	if modelPath == "" {
		return nil, nil, fmt.Errorf("no model specified (use --model or set model_path in %s)", configPath())
	}
	if vocabPath == "" {
		return nil, nil, fmt.Errorf("no vocabulary specified (use --vocab or set vocab_path in %s)", configPath())
	}
	m, err := model.LoadRNN(modelPath)
	if err != nil {
		return nil, nil, err
	}
	v, err := vocab.Load(vocabPath)
	if err != nil {
		return nil, nil, err
	}
	if m.VocabSize() != v.Size() {
		return nil, nil, fmt.Errorf("model has %d ids but vocabulary has %d", m.VocabSize(), v.Size())
	}
	return m, v, nil
}

func stdinIsTTYDefault() bool {
	st, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = stdinIsTTYDefault
