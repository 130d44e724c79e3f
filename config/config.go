// Package config loads shipit settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/fwojciec/shipit"
)

// Config holds every environment-driven setting. Command-line flags are
// layered on top by the commands.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	Model        string `env:"SHIPIT_MODEL"`
	MaxSteps     int    `env:"SHIPIT_MAX_STEPS" envDefault:"10"`
	Root         string `env:"SHIPIT_ROOT" envDefault:"."`

	SandboxURL   string `env:"SHIPIT_SANDBOX_URL"`
	SandboxToken string `env:"SHIPIT_SANDBOX_TOKEN"`
	GitHubToken  string `env:"GITHUB_TOKEN"`

	LogLevel  string `env:"SHIPIT_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"SHIPIT_LOG_FORMAT" envDefault:"text"`
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads settings from vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("config: %v: %w", err, shipit.ErrValidation)
	}
	return cfg, nil
}

// Validate checks the settings needed by every run. remote adds the
// sandbox and GitHub prerequisites.
func (c Config) Validate(remote bool) error {
	var errs []error
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.MaxSteps < 1 {
		errs = append(errs, fmt.Errorf("SHIPIT_MAX_STEPS must be at least 1, got %d", c.MaxSteps))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("SHIPIT_LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if remote {
		if c.SandboxURL == "" {
			errs = append(errs, errors.New("SHIPIT_SANDBOX_URL is required for repository runs"))
		}
		if c.GitHubToken == "" {
			errs = append(errs, errors.New("GITHUB_TOKEN is required for repository runs"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w: %w", errors.Join(errs...), shipit.ErrValidation)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("SHIPIT_LOG_LEVEL: unknown level %q", c.LogLevel)
	}
	return l, nil
}
