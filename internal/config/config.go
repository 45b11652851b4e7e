// Package config loads the greeting settings and host options.
//
// Greeting settings come from an optional YAML or JSON file and may be
// overridden from the environment. A missing or unreadable settings file is
// never fatal: the compiled-in defaults are used and a warning is logged.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"hello-mcp-go/internal/greeting"
)

const (
	// DefaultPath is the settings file looked up in the working directory.
	DefaultPath = "hello-config.json"

	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds host options plus the greeting settings.
type Config struct {
	Path      string `env:"HELLO_CONFIG" envDefault:"hello-config.json"`
	Transport string `env:"HELLO_TRANSPORT" envDefault:"stdio"`
	Addr      string `env:"HELLO_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn"`

	Greeting greeting.Config
}

// fileSettings mirrors the settings file. Pointers distinguish an absent key
// from an empty value.
type fileSettings struct {
	GreetingPrefix     *string           `yaml:"greeting_prefix"`
	DefaultName        *string           `yaml:"default_name"`
	AvailableLanguages map[string]string `yaml:"available_languages"`
}

// envSettings are applied after the file. Unset variables leave values untouched.
type envSettings struct {
	GreetingPrefix string `env:"HELLO_GREETING_PREFIX"`
	DefaultName    string `env:"HELLO_DEFAULT_NAME"`
}

// FromEnv reads host options from the environment. Greeting settings are
// left at their defaults; call LoadGreeting to fill them.
func FromEnv() (*Config, error) {
	cfg := &Config{Greeting: greeting.DefaultConfig()}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the host options.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("transport must be one of: %s, %s", TransportStdio, TransportHTTP)
	}

	if c.Transport == TransportHTTP && c.Addr == "" {
		return fmt.Errorf("addr is required for the http transport")
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	return nil
}

// LoadGreeting reads the greeting settings at path and applies environment
// overrides. Any problem with the file is logged and the defaults are kept.
func LoadGreeting(path string, logger zerolog.Logger) greeting.Config {
	cfg := greeting.DefaultConfig()

	settings, err := readFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug().Str("path", path).Msg("No settings file, using defaults")
	case err != nil:
		logger.Warn().Err(err).Str("path", path).Msg("Failed to load config")
	default:
		cfg = settings.apply(cfg)
		logger.Info().
			Str("path", path).
			Int("languages", len(cfg.Languages)).
			Msg("Loaded settings file")
	}

	var overrides envSettings
	if err := env.Parse(&overrides); err != nil {
		logger.Warn().Err(err).Msg("Failed to read environment overrides")
		return cfg
	}
	if overrides.GreetingPrefix != "" {
		cfg.GreetingPrefix = overrides.GreetingPrefix
	}
	if overrides.DefaultName != "" {
		cfg.DefaultName = overrides.DefaultName
	}

	return cfg
}

func readFile(path string) (*fileSettings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// JSON is a subset of YAML, so one decoder covers both formats.
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var settings fileSettings
	if err := dec.Decode(&settings); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &settings, nil
}

func (s *fileSettings) apply(cfg greeting.Config) greeting.Config {
	if s.GreetingPrefix != nil {
		cfg.GreetingPrefix = *s.GreetingPrefix
	}
	if s.DefaultName != nil {
		cfg.DefaultName = *s.DefaultName
	}
	if s.AvailableLanguages != nil {
		cfg.Languages = s.AvailableLanguages
	}
	return cfg
}
