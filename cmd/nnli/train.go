package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/siyutao/adversarial-nli/internal/corpus"
	"github.com/siyutao/adversarial-nli/internal/logger"
	"github.com/siyutao/adversarial-nli/internal/model"
	"github.com/siyutao/adversarial-nli/internal/train"
	"github.com/siyutao/adversarial-nli/internal/vocab"
)

func trainCmd() *cli.Command {
	var (
		corpusPath string
		validPath  string
		epochs     int64
		batchSize  int64
		seqLen     int64
		learnRate  float64
		clipNorm   float64
		embed      int64
		hidden     int64
		minFreq    int64
		sampleNum  int64
		seed       int64
	)

	return &cli.Command{
		Name:  "train",
		Usage: "Train the language model on an SNLI-style jsonl corpus",
		Flags: append(append(commonModelFlags(), loggingFlags()...),
			&cli.StringFlag{
				Name:        "corpus",
				Usage:       "training corpus (.jsonl or .jsonl.gz)",
				Required:    true,
				Destination: &corpusPath,
			},
			&cli.StringFlag{
				Name:        "valid",
				Usage:       "validation corpus (default: 5% tail of the training stream)",
				Destination: &validPath,
			},
			&cli.Int64Flag{Name: "epochs", Value: 10, Destination: &epochs},
			&cli.Int64Flag{Name: "batch-size", Value: 32, Destination: &batchSize},
			&cli.Int64Flag{Name: "seq-len", Value: 20, Destination: &seqLen},
			&cli.Float64Flag{Name: "learn-rate", Value: 0.1, Destination: &learnRate},
			&cli.Float64Flag{Name: "clip-norm", Value: 5, Destination: &clipNorm},
			&cli.Int64Flag{Name: "embed", Value: 64, Destination: &embed},
			&cli.Int64Flag{Name: "hidden", Value: 128, Destination: &hidden},
			&cli.Int64Flag{Name: "min-freq", Value: 2, Destination: &minFreq},
			&cli.Int64Flag{
				Name:        "sample-num",
				Usage:       "tokens to sample after each epoch (0 disables)",
				Value:       20,
				Destination: &sampleNum,
			},
			&cli.Int64Flag{Name: "seed", Value: 42, Destination: &seed},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyCommonConfig(cmd, LoadConfig())
			if modelPath == "" || vocabPath == "" {
				return fmt.Errorf("train needs --model and --vocab output paths")
			}
			log := newLogger()
			ctx = logger.WithContext(ctx, log)

			sentences, err := corpus.Load(corpusPath)
			if err != nil {
				return err
			}
			log.Info("corpus loaded", "path", corpusPath, "sentences", len(sentences))

			v := vocab.Build(corpus.Counts(sentences), int(minFreq))
			if err := v.Save(vocabPath); err != nil {
				return err
			}
			log.Info("vocabulary built", "size", v.Size(), "path", vocabPath)

			trainIDs := corpus.EncodeStream(v, sentences)
			var validIDs []int
			if validPath != "" {
				validSentences, err := corpus.Load(validPath)
				if err != nil {
					return err
				}
				validIDs = corpus.EncodeStream(v, validSentences)
			} else {
				cut := len(trainIDs) * 95 / 100
				trainIDs, validIDs = trainIDs[:cut], trainIDs[cut:]
			}

			m := model.NewRNN(v.Size(), int(embed), int(hidden), seed)
			tr := train.New(m, v, train.Config{
				Epochs:     int(epochs),
				BatchSize:  int(batchSize),
				SeqLen:     int(seqLen),
				LearnRate:  learnRate,
				ClipNorm:   clipNorm,
				Checkpoint: modelPath,
				SampleNum:  int(sampleNum),
				Seed:       seed,
			}, log)
			if stdinIsTTY() {
				tr.Output = os.Stderr
			}

			res, err := tr.Run(ctx, trainIDs, validIDs)
			if err != nil {
				return err
			}
			log.Info("training finished",
				"epochs", res.Epochs,
				"train_loss", res.TrainLoss,
				"best_valid", res.BestValid,
				"checkpoint", modelPath)
			if !res.Saved {
				return fmt.Errorf("no checkpoint improved on the initial model")
			}
			return nil
		},
	}
}
