package agent

import (
	"io"
	"log/slog"

	"github.com/fwojciec/shipit"
)

// Option configures a Loop or a Runner.
type Option func(*config)

type config struct {
	maxSteps     int
	logger       *slog.Logger
	sandbox      shipit.Sandbox
	publisher    shipit.Publisher
	root         string
	systemPrompt string
}

func newConfig(opts []Option) config {
	c := config{
		maxSteps: DefaultMaxSteps,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		root:     ".",
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithMaxSteps sets the model round ceiling. Values below one are ignored.
func WithMaxSteps(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSandbox sets the sandbox used by remote runs.
func WithSandbox(s shipit.Sandbox) Option {
	return func(c *config) { c.sandbox = s }
}

// WithPublisher sets the pull request publisher used by remote runs.
func WithPublisher(p shipit.Publisher) Option {
	return func(c *config) { c.publisher = p }
}

// WithRoot sets the directory local runs operate on. Defaults to ".".
func WithRoot(root string) Option {
	return func(c *config) { c.root = root }
}

// WithSystemPrompt replaces the default system prompt for both variants.
func WithSystemPrompt(p string) Option {
	return func(c *config) { c.systemPrompt = p }
}
