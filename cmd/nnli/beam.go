package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/siyutao/adversarial-nli/internal/decode"
)

func beamCmd() *cli.Command {
	var (
		seedText  string
		width     int64
		maxsample int64
		seed      int64
		showAll   bool
	)

	return &cli.Command{
		Name:  "beam",
		Usage: "Beam-search a continuation of a seed text",
		Flags: append(append(commonModelFlags(), loggingFlags()...),
			&cli.StringFlag{
				Name:        "seed-text",
				Aliases:     []string{"p"},
				Usage:       "seed text to continue",
				Destination: &seedText,
			},
			&cli.Int64Flag{
				Name:        "width",
				Aliases:     []string{"k"},
				Usage:       "beam width",
				Value:       5,
				Destination: &width,
			},
			&cli.Int64Flag{
				Name:        "maxsample",
				Usage:       "maximum expansion rounds",
				Value:       20,
				Destination: &maxsample,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "RNG seed for the empty-seed fallback (0 uses the current time)",
				Destination: &seed,
			},
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "print every hypothesis, not just the selected one",
				Destination: &showAll,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyBeamConfig(cmd, LoadConfig(), &width, &maxsample, &seed)

			m, v, err := loadAssets()
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			bs := decode.NewBeamSearch(m, v, rand.New(rand.NewSource(seed)))
			seqs, scores, err := bs.Search(seedText, int(width), int(maxsample))
			if err != nil {
				return err
			}
			if len(seqs) == 0 {
				return fmt.Errorf("beam search produced no hypotheses")
			}

			best := 0
			for i, s := range scores {
				if s < scores[best] {
					best = i
				}
			}
			fmt.Printf("%.4f\t%s\n", scores[best], v.DecodeWords(seqs[best]))
			if showAll {
				for i, seq := range seqs {
					if i == best {
						continue
					}
					fmt.Printf("%.4f\t%s\n", scores[i], v.DecodeWords(seq))
				}
			}
			return nil
		},
	}
}
