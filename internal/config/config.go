package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/materials/internal/core/observability/log"
)

const (
	LoaderFile      = "file"
	LoaderWebSocket = "websocket"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

type Config struct {
	Import  ImportConfig  `toml:"import" yaml:"import"`
	Loader  LoaderConfig  `toml:"loader" yaml:"loader"`
	Shader  ShaderConfig  `toml:"shader" yaml:"shader"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

type ImportConfig struct {
	Timeout  time.Duration `toml:"timeout" yaml:"timeout"`     // per-request wait before NotFound
	TickRate time.Duration `toml:"tick_rate" yaml:"tick_rate"` // simulated time per tick
	MaxTicks int           `toml:"max_ticks" yaml:"max_ticks"` // CLI safety stop
}

type LoaderConfig struct {
	Kind    string `toml:"kind" yaml:"kind"` // "file" or "websocket"
	Root    string `toml:"root" yaml:"root"`
	Workers int    `toml:"workers" yaml:"workers"`
	URL     string `toml:"url" yaml:"url"`
}

type ShaderConfig struct {
	Defines map[string]string `toml:"defines" yaml:"defines"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file over Defaults and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Defaults()
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Import: ImportConfig{
			Timeout:  5 * time.Second,
			TickRate: 16 * time.Millisecond,
			MaxTicks: 10_000,
		},
		Loader: LoaderConfig{
			Kind:    LoaderFile,
			Root:    ".",
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Import.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("import.timeout must be positive, got %s", c.Import.Timeout))
	}
	if c.Import.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("import.tick_rate must be positive, got %s", c.Import.TickRate))
	}
	if c.Import.MaxTicks <= 0 {
		errs = append(errs, fmt.Errorf("import.max_ticks must be positive, got %d", c.Import.MaxTicks))
	}
	switch c.Loader.Kind {
	case LoaderFile:
		if c.Loader.Root == "" {
			errs = append(errs, errors.New("loader.root is required for the file loader"))
		}
		if c.Loader.Workers < 1 {
			errs = append(errs, fmt.Errorf("loader.workers must be at least 1, got %d", c.Loader.Workers))
		}
	case LoaderWebSocket:
		if c.Loader.URL == "" {
			errs = append(errs, errors.New("loader.url is required for the websocket loader"))
		}
	default:
		errs = append(errs, fmt.Errorf("loader.kind %q is not one of %q, %q", c.Loader.Kind, LoaderFile, LoaderWebSocket))
	}
	if _, ok := log.ParseLevel(c.Logging.Level); !ok {
		errs = append(errs, fmt.Errorf("logging.level %q is not a known level", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format %q is not json or console", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// LogConfig converts the logging section for the logger constructor.
func (c *Config) LogConfig() log.Config {
	return log.Config{Level: c.Logging.Level, Encoding: c.Logging.Format}
}
