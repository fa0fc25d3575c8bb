package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the nextline configuration file (~/.config/nextline/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	// Generation defaults
	Temperature *float64 `yaml:"temperature"`
	MaxLength   *int64   `yaml:"max_length"`
	TopK        *int64   `yaml:"top_k"`
	TopP        *float64 `yaml:"top_p"`
	Count       *int64   `yaml:"count"`
	Seed        *int64   `yaml:"seed"`

	// Backend
	Backend  string         `yaml:"backend"`
	Corpus   string         `yaml:"corpus"`
	Endpoint string         `yaml:"endpoint"`
	Model    string         `yaml:"model"`
	APIKey   string         `yaml:"api_key"`
	Timeout  *time.Duration `yaml:"timeout"`
	Workers  *int64         `yaml:"workers"`

	// Cleanup
	FirstSentence *bool  `yaml:"first_sentence"`
	MinWords      *int64 `yaml:"min_words"`

	// Output
	Format    string `yaml:"format"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nextline", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config.
func LoadConfig() (Config, error) {
	path := configPath()
	if path == "" {
		return Config{}, nil
	}
	return readConfig(path)
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyPredictConfig copies config file defaults into o for every flag the
// user did not set on the command line or through the environment.
func applyPredictConfig(isSet func(name string) bool, cfg Config, o *predictOptions) {
	if cfg.Temperature != nil && !isSet("temperature") {
		o.temperature = *cfg.Temperature
	}
	if cfg.MaxLength != nil && !isSet("max-length") {
		o.maxLength = *cfg.MaxLength
	}
	if cfg.TopK != nil && !isSet("top-k") {
		o.topK = *cfg.TopK
	}
	if cfg.TopP != nil && !isSet("top-p") {
		o.topP = *cfg.TopP
	}
	if cfg.Count != nil && !isSet("count") {
		o.count = *cfg.Count
	}
	if cfg.Seed != nil && !isSet("seed") {
		o.seed = *cfg.Seed
	}
	if cfg.Backend != "" && !isSet("backend") {
		o.backend = cfg.Backend
	}
	if cfg.Corpus != "" && !isSet("corpus") {
		o.corpus = cfg.Corpus
	}
	if cfg.Endpoint != "" && !isSet("endpoint") {
		o.endpoint = cfg.Endpoint
	}
	if cfg.Model != "" && !isSet("model") {
		o.model = cfg.Model
	}
	if cfg.APIKey != "" && !isSet("api-key") {
		o.apiKey = cfg.APIKey
	}
	if cfg.Timeout != nil && !isSet("timeout") {
		o.timeout = *cfg.Timeout
	}
	if cfg.Workers != nil && !isSet("workers") {
		o.workers = *cfg.Workers
	}
	if cfg.FirstSentence != nil && !isSet("first-sentence") {
		o.firstSentence = *cfg.FirstSentence
	}
	if cfg.MinWords != nil && !isSet("min-words") {
		o.minWords = *cfg.MinWords
	}
	if cfg.Format != "" && !isSet("format") {
		o.format = cfg.Format
	}
	if cfg.LogLevel != "" && !isSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !isSet("log-format") {
		logFormat = cfg.LogFormat
	}
}
