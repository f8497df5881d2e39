package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the nnli configuration file (~/.config/nnli/config.yaml).
// Numeric fields are pointers so "not set" is distinguishable from zero.
type Config struct {
	ModelPath string `yaml:"model_path"`
	VocabPath string `yaml:"vocab_path"`

	// Sampling defaults
	Num       *int64 `yaml:"num"`
	Policy    string `yaml:"policy"`
	Seed      *int64 `yaml:"seed"`
	Width     *int64 `yaml:"width"`
	MaxSample *int64 `yaml:"maxsample"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nnli", "config.yaml")
}

// applyCommonConfig fills flag-backed variables from the config file when
// the corresponding CLI flag was not explicitly set.
func applyCommonConfig(c *cli.Command, cfg Config) {
	if cfg.ModelPath != "" && !c.IsSet("model") {
		modelPath = cfg.ModelPath
	}
	if cfg.VocabPath != "" && !c.IsSet("vocab") {
		vocabPath = cfg.VocabPath
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

func applySampleConfig(c *cli.Command, cfg Config, num *int64, policy *string, seed *int64) {
	applyCommonConfig(c, cfg)
	if cfg.Num != nil && !c.IsSet("num") {
		*num = *cfg.Num
	}
	if cfg.Policy != "" && !c.IsSet("policy") {
		*policy = cfg.Policy
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		*seed = *cfg.Seed
	}
}

func applyBeamConfig(c *cli.Command, cfg Config, width, maxsample, seed *int64) {
	applyCommonConfig(c, cfg)
	if cfg.Width != nil && !c.IsSet("width") {
		*width = *cfg.Width
	}
	if cfg.MaxSample != nil && !c.IsSet("maxsample") {
		*maxsample = *cfg.MaxSample
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		*seed = *cfg.Seed
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	applyCommonConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist or cannot be parsed.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
