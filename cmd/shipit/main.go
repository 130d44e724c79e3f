// Command shipit runs a coding agent on one task.
//
// Usage:
//
//	GEMINI_API_KEY=... shipit [flags] <task>
//
// Without -repo the agent edits files under -root. With -repo the agent works
// on a sandbox clone and finishes by opening a pull request, which needs
// SHIPIT_SANDBOX_URL and GITHUB_TOKEN.
//
// Flags:
//
//	-repo string       GitHub repository (owner/name or clone URL) for a remote run
//	-root string       Directory for a local run (default $SHIPIT_ROOT or ".")
//	-model string      Gemini model ID (default $SHIPIT_MODEL or provider default)
//	-max-steps int     Model round ceiling (default $SHIPIT_MAX_STEPS or 10)
//	-api-key string    Gemini API key (overrides GEMINI_API_KEY)
//	-plain             Print progress lines instead of the interactive view
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/fwojciec/shipit"
	"github.com/fwojciec/shipit/agent"
	bt "github.com/fwojciec/shipit/bubbletea"
	"github.com/fwojciec/shipit/config"
	"github.com/fwojciec/shipit/goldmark"
	"github.com/fwojciec/shipit/internal/app"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "shipit: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	repo     string
	root     string
	model    string
	maxSteps int
	apiKey   string
	plain    bool
	task     string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("shipit", flag.ContinueOnError)
	fs.StringVar(&o.repo, "repo", "", "GitHub repository (owner/name or clone URL) for a remote run")
	fs.StringVar(&o.root, "root", "", "Directory for a local run")
	fs.StringVar(&o.model, "model", "", "Gemini model ID")
	fs.IntVar(&o.maxSteps, "max-steps", 0, "Model round ceiling")
	fs.StringVar(&o.apiKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY)")
	fs.BoolVar(&o.plain, "plain", false, "Print progress lines instead of the interactive view")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	o.task = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if o.task == "" {
		return options{}, errors.New("no task given: usage: shipit [flags] <task>")
	}
	return o, nil
}

// apply layers explicit flags over environment settings.
func (o options) apply(cfg config.Config) config.Config {
	if o.root != "" {
		cfg.Root = o.root
	}
	if o.model != "" {
		cfg.Model = o.model
	}
	if o.maxSteps > 0 {
		cfg.MaxSteps = o.maxSteps
	}
	if o.apiKey != "" {
		cfg.GeminiAPIKey = o.apiKey
	}
	return cfg
}

func run() error {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg = opts.apply(cfg)
	if err := cfg.Validate(opts.repo != ""); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interactive := !opts.plain && isatty.IsTerminal(os.Stdout.Fd())

	// The interactive view owns the terminal, so logs are held back and
	// written after it exits.
	var held *lockedBuffer
	var logOut io.Writer = os.Stderr
	if interactive {
		held = &lockedBuffer{}
		logOut = held
	}
	logger, err := app.NewLogger(cfg, logOut, isatty.IsTerminal(os.Stderr.Fd()))
	if err != nil {
		return err
	}
	runner, err := app.NewRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	runFn := func(ctx context.Context, onEvent func(shipit.Event)) (shipit.RunResult, error) {
		return runner.Run(ctx, opts.task, opts.repo, agent.WithEventHandler(onEvent))
	}

	theme := shipit.DefaultTheme()
	var res shipit.RunResult
	if interactive {
		final, err := bt.Run(ctx, bt.New(runFn, opts.task, theme))
		_, _ = held.WriteTo(os.Stderr)
		if err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		if final.Err() != nil {
			return final.Err()
		}
		res = final.Result()
	} else {
		res, err = runFn(ctx, progressPrinter(os.Stderr))
		if err != nil {
			return err
		}
		if out := goldmark.New(theme).Render(res.Response, 100); out != "" {
			fmt.Fprintln(os.Stdout, out)
		}
		fmt.Fprintf(os.Stderr, "%s after %d steps, %d tokens\n", res.State, res.Steps, res.Usage.Total())
	}
	warnExhausted(os.Stderr, res)
	return nil
}

// warnExhausted tells the user that the step ceiling ended the run. The run
// still counts as completed, so the exit status stays zero.
func warnExhausted(w io.Writer, res shipit.RunResult) {
	if res.State != shipit.RunStateExhausted {
		return
	}
	fmt.Fprintf(w, "shipit: warning: step limit reached after %d steps; the task may be unfinished\n", res.Steps)
}

// lockedBuffer is a bytes.Buffer safe for the concurrent writes of a
// logger shared by the run goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.WriteTo(w)
}
