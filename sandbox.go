package shipit

import "context"

// CommandResult is the outcome of a command run inside a sandbox.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Sandbox provisions isolated environments holding a clone of a repository.
type Sandbox interface {
	Create(ctx context.Context, repo string) (SandboxSession, error)
}

// SandboxSession is one provisioned environment. Paths are relative to the
// repository checkout. Stop releases the environment; the session is unusable
// afterwards.
type SandboxSession interface {
	ID() string
	List(ctx context.Context, path string) ([]string, error)
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path, content string) error
	Run(ctx context.Context, cmd string, args ...string) (CommandResult, error)
	Stop(ctx context.Context) error
}
