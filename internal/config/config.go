// Package config loads the optional YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/dshills/docsync/internal/parser"
	"github.com/dshills/docsync/internal/syntax"
	"github.com/dshills/docsync/internal/walker"
)

// ErrInvalidConfig marks configuration errors, as opposed to run failures
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every tunable of a run
type Config struct {
	// Concurrent file workers; 0 selects runtime.NumCPU()
	Workers int `yaml:"workers"`
	// Files above this size are skipped (bytes)
	MaxFileSize int64          `yaml:"max_file_size"`
	Walker      walker.Options `yaml:"walker"`
	Syntax      syntax.Config  `yaml:"syntax"`
	Watch       WatchConfig    `yaml:"watch"`
}

// WatchConfig tunes replace --watch
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Workers:     runtime.NumCPU(),
		MaxFileSize: parser.DefaultMaxFileSize,
		Walker:      walker.DefaultOptions(),
		Watch:       WatchConfig{Debounce: 300 * time.Millisecond},
	}
}

// Load reads path and merges it over Default. An empty path returns the
// defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks value ranges, glob patterns and marker expressions
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0), validation.Max(1024)),
		validation.Field(&c.MaxFileSize, validation.Min(int64(0))),
		validation.Field(&c.Walker, validation.By(func(value any) error {
			return value.(walker.Options).Validate()
		})),
		validation.Field(&c.Syntax, validation.By(func(value any) error {
			_, err := syntax.Compile(value.(syntax.Config))
			return err
		})),
		validation.Field(&c.Watch, validation.By(func(value any) error {
			if value.(WatchConfig).Debounce < 0 {
				return validation.NewError("docsync.watch.debounce_negative", "debounce must not be negative")
			}
			return nil
		})),
	)
}

// CompileSyntax builds the marker syntax the configuration describes
func (c *Config) CompileSyntax() (*syntax.Syntax, error) {
	syn, err := syntax.Compile(c.Syntax)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return syn, nil
}

// EffectiveWorkers returns the worker count with the default applied
func (c *Config) EffectiveWorkers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}
