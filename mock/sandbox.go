package mock

import (
	"context"

	"github.com/fwojciec/shipit"
)

// Interface compliance checks.
var (
	_ shipit.Sandbox        = (*Sandbox)(nil)
	_ shipit.SandboxSession = (*SandboxSession)(nil)
	_ shipit.Publisher      = (*Publisher)(nil)
)

// Sandbox is a test double for shipit.Sandbox.
type Sandbox struct {
	CreateFn func(ctx context.Context, repo string) (shipit.SandboxSession, error)
}

// Create delegates to CreateFn.
func (s *Sandbox) Create(ctx context.Context, repo string) (shipit.SandboxSession, error) {
	return s.CreateFn(ctx, repo)
}

// SandboxSession is a test double for shipit.SandboxSession.
// IDFn and StopFn are nil-safe; the rest panic when unset.
type SandboxSession struct {
	IDFn    func() string
	ListFn  func(ctx context.Context, path string) ([]string, error)
	ReadFn  func(ctx context.Context, path string) (string, error)
	WriteFn func(ctx context.Context, path, content string) error
	RunFn   func(ctx context.Context, cmd string, args ...string) (shipit.CommandResult, error)
	StopFn  func(ctx context.Context) error
}

// ID delegates to IDFn. Returns "mock" when IDFn is nil.
func (s *SandboxSession) ID() string {
	if s.IDFn == nil {
		return "mock"
	}
	return s.IDFn()
}

// List delegates to ListFn.
func (s *SandboxSession) List(ctx context.Context, path string) ([]string, error) {
	return s.ListFn(ctx, path)
}

// Read delegates to ReadFn.
func (s *SandboxSession) Read(ctx context.Context, path string) (string, error) {
	return s.ReadFn(ctx, path)
}

// Write delegates to WriteFn.
func (s *SandboxSession) Write(ctx context.Context, path, content string) error {
	return s.WriteFn(ctx, path, content)
}

// Run delegates to RunFn.
func (s *SandboxSession) Run(ctx context.Context, cmd string, args ...string) (shipit.CommandResult, error) {
	return s.RunFn(ctx, cmd, args...)
}

// Stop delegates to StopFn. Returns nil when StopFn is not set.
func (s *SandboxSession) Stop(ctx context.Context) error {
	if s.StopFn == nil {
		return nil
	}
	return s.StopFn(ctx)
}

// Publisher is a test double for shipit.Publisher.
type Publisher struct {
	PublishFn func(ctx context.Context, session shipit.SandboxSession, repo string, pr shipit.PullRequest) (string, error)
}

// Publish delegates to PublishFn.
func (p *Publisher) Publish(ctx context.Context, session shipit.SandboxSession, repo string, pr shipit.PullRequest) (string, error) {
	return p.PublishFn(ctx, session, repo, pr)
}
