// Package train runs the Adagrad training loop for the recurrent language
// model, with per-epoch validation and best-checkpoint persistence.
package train

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/siyutao/adversarial-nli/internal/batch"
	"github.com/siyutao/adversarial-nli/internal/corpus"
	"github.com/siyutao/adversarial-nli/internal/decode"
	"github.com/siyutao/adversarial-nli/internal/logger"
	"github.com/siyutao/adversarial-nli/internal/model"
	"github.com/siyutao/adversarial-nli/internal/vocab"
)

type Config struct {
	Epochs    int
	BatchSize int
	SeqLen    int
	LearnRate float64
	ClipNorm  float64
	// Checkpoint is where the best model is written; empty disables saving.
	Checkpoint string
	// SampleNum > 0 logs a stochastic sample of that many tokens per epoch.
	SampleNum int
	Seed      int64
}

type Result struct {
	Epochs    int
	TrainLoss float64
	BestValid float64
	Saved     bool
}

type Trainer struct {
	Model  *model.RNN
	Vocab  *vocab.Vocabulary
	Config Config
	Log    logger.Logger
	// Output receives the per-epoch progress bar; nil disables it.
	Output io.Writer
}

func New(m *model.RNN, v *vocab.Vocabulary, cfg Config, log logger.Logger) *Trainer {
	return &Trainer{Model: m, Vocab: v, Config: cfg, Log: log}
}

// Run trains for Config.Epochs over trainIDs, validating on validIDs after
// every epoch. The checkpoint is rewritten whenever the validation
// log-perplexity improves. With an empty validation stream the training
// loss drives checkpointing instead.
func (t *Trainer) Run(ctx context.Context, trainIDs, validIDs []int) (Result, error) {
	cfg := t.Config
	var res Result
	if cfg.Epochs < 1 {
		return res, &batch.InvalidParameterError{Param: "epochs", Value: cfg.Epochs}
	}
	windows, err := corpus.Windows(trainIDs, cfg.BatchSize, cfg.SeqLen)
	if err != nil {
		return res, fmt.Errorf("train: %w", err)
	}
	if len(windows) == 0 {
		return res, &batch.InvalidParameterError{Param: "trainIDs", Value: len(trainIDs)}
	}

	opt := NewAdagrad(cfg.LearnRate)
	params := t.Model.Params()
	best := math.Inf(1)

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		state := t.Model.ZeroState(cfg.BatchSize)
		bar := t.epochBar(epoch, len(windows))
		epochLoss := 0.0
		for _, w := range windows {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			default:
			}
			t.Model.ZeroGrad()
			loss, next, err := t.Model.Backprop(w.X, w.Y, state)
			if err != nil {
				return res, fmt.Errorf("train: epoch %d: %w", epoch, err)
			}
			ClipGradients(params, cfg.ClipNorm)
			opt.Step(params)
			state = next
			epochLoss += loss
			if bar != nil {
				_ = bar.Add(1)
			}
		}
		if bar != nil {
			_ = bar.Finish()
		}

		trainLoss := epochLoss / float64(len(windows))
		score := trainLoss
		logArgs := []any{"epoch", epoch, "train_loss", trainLoss}
		if len(validIDs) > 0 {
			valid, err := t.Validate(validIDs)
			if err != nil {
				return res, fmt.Errorf("train: epoch %d: %w", epoch, err)
			}
			score = valid
			logArgs = append(logArgs, "valid_logppl", valid)
		}
		t.Log.Info("epoch complete", logArgs...)
		t.logSample(epoch)

		res.Epochs = epoch
		res.TrainLoss = trainLoss
		if score < best {
			best = score
			res.BestValid = best
			if cfg.Checkpoint != "" {
				if err := t.Model.Save(cfg.Checkpoint); err != nil {
					return res, fmt.Errorf("train: checkpoint: %w", err)
				}
				res.Saved = true
				t.Log.Info("checkpoint saved", "path", cfg.Checkpoint, "valid_logppl", best)
			}
		}
	}
	return res, nil
}

// Validate returns the mean next-token cross-entropy over a held-out id
// stream, single-row windows with carried state.
func (t *Trainer) Validate(ids []int) (float64, error) {
	windows, err := corpus.Windows(ids, 1, t.Config.SeqLen)
	if err != nil {
		return 0, err
	}
	if len(windows) == 0 {
		return 0, &batch.InvalidParameterError{Param: "validIDs", Value: len(ids)}
	}
	state := t.Model.ZeroState(1)
	total := 0.0
	for _, w := range windows {
		loss, next, err := t.Model.Loss(w.X, w.Y, state)
		if err != nil {
			return 0, err
		}
		total += loss
		state = next
	}
	return total / float64(len(windows)), nil
}

func (t *Trainer) logSample(epoch int) {
	if t.Config.SampleNum <= 0 {
		return
	}
	rng := rand.New(rand.NewSource(t.Config.Seed + int64(epoch)))
	gen := decode.NewGenerator(t.Model, t.Vocab, rng)
	tokens, err := gen.Generate("", t.Config.SampleNum, decode.Stochastic)
	if err != nil {
		t.Log.Warn("sampling failed", "epoch", epoch, "error", err)
		return
	}
	t.Log.Info("sample", "epoch", epoch, "text", strings.Join(tokens, " "))
}

func (t *Trainer) epochBar(epoch, total int) *progressbar.ProgressBar {
	if t.Output == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(t.Output),
		progressbar.OptionSetDescription(fmt.Sprintf("epoch %d/%d", epoch, t.Config.Epochs)),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
