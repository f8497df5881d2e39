package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/siyutao/adversarial-nli/internal/logger"
)

var (
	modelPath string
	vocabPath string
	logLevel  string
	logFormat string
)

func commonModelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "path to model weights (JSON checkpoint)",
			Destination: &modelPath,
		},
		&cli.StringFlag{
			Name:        "vocab",
			Usage:       "path to vocabulary file",
			Destination: &vocabPath,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
	}
}

func newLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	default:
		return logger.Pretty(os.Stderr, level)
	}
}
