// Package app wires configuration into the logger and agent runner shared
// by the commands.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/shipit/agent"
	"github.com/fwojciec/shipit/config"
	"github.com/fwojciec/shipit/gemini"
	"github.com/fwojciec/shipit/github"
	"github.com/fwojciec/shipit/sandbox"
	"github.com/lmittmann/tint"
)

// NewLogger builds the process logger. Text output uses tint, colored only
// when color is set; json output uses the standard JSON handler.
func NewLogger(cfg config.Config, w io.Writer, color bool) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	switch cfg.LogFormat {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	case "text", "":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !color,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Value.Kind() == slog.KindAny {
					if _, ok := a.Value.Any().(error); ok {
						return tint.Attr(9, a)
					}
				}
				return a
			},
		})), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
}

// NewRunner builds an agent runner from cfg. The sandbox and publisher are
// only configured when their settings are present, so a local-only
// configuration still yields a usable runner.
func NewRunner(ctx context.Context, cfg config.Config, logger *slog.Logger) (*agent.Runner, error) {
	provider, err := gemini.New(ctx, cfg.GeminiAPIKey,
		gemini.WithModel(cfg.Model),
		gemini.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	opts := []agent.Option{
		agent.WithMaxSteps(cfg.MaxSteps),
		agent.WithRoot(cfg.Root),
		agent.WithLogger(logger),
	}
	if cfg.SandboxURL != "" {
		opts = append(opts, agent.WithSandbox(sandbox.New(cfg.SandboxURL, cfg.SandboxToken)))
	}
	if cfg.GitHubToken != "" {
		pub, err := github.New(cfg.GitHubToken, github.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		opts = append(opts, agent.WithPublisher(pub))
	}
	return agent.NewRunner(provider, opts...), nil
}
