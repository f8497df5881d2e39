package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/siyutao/adversarial-nli/internal/decode"
	"github.com/siyutao/adversarial-nli/internal/vocab"
)

func scoreCmd() *cli.Command {
	var inputPath string

	return &cli.Command{
		Name:  "score",
		Usage: "Score sentences by language-model log-perplexity",
		Flags: append(append(commonModelFlags(), loggingFlags()...),
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "file with one sentence per line (default: stdin)",
				Destination: &inputPath,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyCommonConfig(cmd, LoadConfig())

			m, v, err := loadAssets()
			if err != nil {
				return err
			}

			var in io.Reader = os.Stdin
			if inputPath != "" {
				f, err := os.Open(inputPath)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var sentences []string
			sc := bufio.NewScanner(in)
			sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line != "" {
					sentences = append(sentences, line)
				}
			}
			if err := sc.Err(); err != nil {
				return err
			}

			rows := make([][]int, len(sentences))
			for i, s := range sentences {
				ids := []int{vocab.BosID}
				ids = append(ids, v.EncodeWords(s)...)
				rows[i] = append(ids, vocab.EosID)
			}
			scorer := &decode.PerplexityScorer{Model: m}
			scores, err := scorer.Score(rows)
			if err != nil {
				return err
			}
			for i, s := range sentences {
				fmt.Printf("%.6f\t%s\n", scores[i], s)
			}
			return nil
		},
	}
}
