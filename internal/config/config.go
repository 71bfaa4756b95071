package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gffstream/internal/pipeline"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Parser struct {
		BufferSize         int  `yaml:"buffer_size"`          // 0 = unlimited
		DisableDerivesFrom bool `yaml:"disable_derives_from"` // ignore Derives_from when linking
		ParseComments      bool `yaml:"parse_comments"`
		ParseDirectives    bool `yaml:"parse_directives"`
		ParseSequences     bool `yaml:"parse_sequences"`
	} `yaml:"parser"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Shards struct {
		Workers int `yaml:"workers"`
	} `yaml:"shards"`
	Metrics struct {
		File string `yaml:"file"` // Prometheus textfile; empty disables
	} `yaml:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Parser.ParseComments = true
	cfg.Parser.ParseDirectives = true
	cfg.Parser.ParseSequences = true
	cfg.Storage.DBPath = "gffstream.db"
	cfg.Log.Level = "info"
	cfg.Shards.Workers = 1
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults; a missing file is not an error
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("GFFSTREAM_BUFFER_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GFFSTREAM_BUFFER_SIZE: %w", err)
		}
		cfg.Parser.BufferSize = n
	}
	if v := os.Getenv("GFFSTREAM_DISABLE_DERIVES_FROM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GFFSTREAM_DISABLE_DERIVES_FROM: %w", err)
		}
		cfg.Parser.DisableDerivesFrom = b
	}
	if v := os.Getenv("GFFSTREAM_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GFFSTREAM_WORKERS: %w", err)
		}
		cfg.Shards.Workers = n
	}
	if v := os.Getenv("GFFSTREAM_DB"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("GFFSTREAM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GFFSTREAM_METRICS_FILE"); v != "" {
		cfg.Metrics.File = v
	}
	return nil
}

// Validate rejects settings the parser cannot honor.
func (c *Config) Validate() error {
	if c.Parser.BufferSize < 0 {
		return fmt.Errorf("parser.buffer_size must be >= 0, got %d", c.Parser.BufferSize)
	}
	if c.Shards.Workers < 1 {
		return fmt.Errorf("shards.workers must be >= 1, got %d", c.Shards.Workers)
	}
	return nil
}

// ParserOptions maps the parser section onto pipeline options.
// Feature parsing is always on.
func (c *Config) ParserOptions() pipeline.Options {
	return pipeline.Options{
		BufferSize:                   c.Parser.BufferSize,
		DisableDerivesFromReferences: c.Parser.DisableDerivesFrom,
		ParseFeatures:                true,
		ParseComments:                c.Parser.ParseComments,
		ParseDirectives:              c.Parser.ParseDirectives,
		ParseSequences:               c.Parser.ParseSequences,
	}
}
