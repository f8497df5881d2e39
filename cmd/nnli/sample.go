package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/siyutao/adversarial-nli/internal/decode"
)

func sampleCmd() *cli.Command {
	var (
		seedText string
		num      int64
		policy   string
		seed     int64
	)

	return &cli.Command{
		Name:  "sample",
		Usage: "Generate tokens from a seed text",
		Flags: append(append(commonModelFlags(), loggingFlags()...),
			&cli.StringFlag{
				Name:        "seed-text",
				Aliases:     []string{"p"},
				Usage:       "seed text to continue (omit for interactive mode)",
				Destination: &seedText,
			},
			&cli.Int64Flag{
				Name:        "num",
				Aliases:     []string{"n"},
				Usage:       "number of tokens to generate",
				Value:       50,
				Destination: &num,
			},
			&cli.StringFlag{
				Name:        "policy",
				Usage:       "sampling policy (greedy, stochastic, hybrid)",
				Value:       string(decode.Greedy),
				Destination: &policy,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "RNG seed (0 uses the current time)",
				Destination: &seed,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applySampleConfig(cmd, LoadConfig(), &num, &policy, &seed)

			pol, err := decode.ParsePolicy(policy)
			if err != nil {
				return err
			}
			m, v, err := loadAssets()
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			gen := decode.NewGenerator(m, v, rand.New(rand.NewSource(seed)))

			if cmd.IsSet("seed-text") {
				tokens, err := gen.Generate(seedText, int(num), pol)
				if err != nil {
					return err
				}
				fmt.Println(strings.Join(tokens, " "))
				return nil
			}

			// Interactive mode: one generation per prompt line.
			for {
				line, err := readInteractiveLine("seed> ")
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				tokens, err := gen.Generate(line, int(num), pol)
				if err != nil {
					return err
				}
				fmt.Println(strings.Join(tokens, " "))
			}
		},
	}
}
