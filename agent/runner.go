package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/shipit"
	"github.com/fwojciec/shipit/tool"
	"github.com/fwojciec/shipit/workspace"
	"github.com/google/uuid"
)

// System prompts used when WithSystemPrompt is not given.
const (
	DefaultSystemPrompt = "You are a coding agent. You will be working with js/ts projects. Your responses must be concise."

	DefaultRemoteSystemPrompt = DefaultSystemPrompt +
		" You are working on a fresh clone of the repository. When you have made changes, call create_pr as the final step."
)

// Runner starts independent agent runs. Each Run call builds its own
// session, workspace, and tool registry; only configuration is shared.
type Runner struct {
	provider shipit.Provider
	cfg      config
}

// NewRunner returns a Runner using provider for model rounds.
func NewRunner(provider shipit.Provider, opts ...Option) *Runner {
	return &Runner{provider: provider, cfg: newConfig(opts)}
}

// Run executes prompt. An empty repo runs against the local root with the
// file tools; otherwise repo is cloned into a sandbox and create_pr is
// available. The sandbox, if provisioned, is stopped before Run returns on
// every path.
func (r *Runner) Run(ctx context.Context, prompt, repo string, opts ...RunOption) (shipit.RunResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return shipit.RunResult{}, fmt.Errorf("empty task prompt: %w", shipit.ErrValidation)
	}

	now := time.Now()
	session := &shipit.Session{
		ID: uuid.New().String(),
		Messages: []shipit.Message{shipit.UserMessage{
			Content:   []shipit.ContentBlock{shipit.TextBlock{Text: prompt}},
			Timestamp: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	logger := r.cfg.logger.With("run", session.ID[:8])

	var defs []tool.Definition
	if repo == "" {
		ws, err := workspace.NewLocal(r.cfg.root, workspace.WithLogger(logger))
		if err != nil {
			return shipit.RunResult{}, fmt.Errorf("open workspace: %w", err)
		}
		defs = tool.Local(ws)
		session.SystemPrompt = r.prompt(DefaultSystemPrompt)
		logger.Info("starting run", "variant", "local", "root", ws.Root())
	} else {
		if r.cfg.sandbox == nil || r.cfg.publisher == nil {
			return shipit.RunResult{}, fmt.Errorf("remote run needs a sandbox and a publisher: %w", shipit.ErrValidation)
		}
		ws := workspace.NewRemote(r.cfg.sandbox, repo, workspace.WithLogger(logger))
		defer r.teardown(ctx, ws, logger)
		defs = tool.Remote(ws, r.cfg.publisher, repo)
		session.SystemPrompt = r.prompt(DefaultRemoteSystemPrompt)
		logger.Info("starting run", "variant", "remote", "repo", repo)
	}

	registry, err := tool.NewRegistry(defs...)
	if err != nil {
		return shipit.RunResult{}, err
	}
	loop := New(r.provider, registry, WithMaxSteps(r.cfg.maxSteps), WithLogger(logger))
	return loop.Run(ctx, session, registry.Tools(), opts...)
}

func (r *Runner) prompt(def string) string {
	if r.cfg.systemPrompt != "" {
		return r.cfg.systemPrompt
	}
	return def
}

// teardown stops the remote session even when ctx has been cancelled.
func (r *Runner) teardown(ctx context.Context, ws *workspace.Remote, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := ws.Close(ctx); err != nil {
		logger.Error("teardown failed", "error", err)
	}
}
