package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fwojciec/shipit"
)

// Interface compliance check.
var _ shipit.Workspace = (*Remote)(nil)

// Remote is a Workspace backed by a sandbox session that is provisioned on
// first use. One Remote belongs to one run.
type Remote struct {
	sandbox shipit.Sandbox
	repo    string
	policy  Policy
	logger  *slog.Logger

	mu      sync.Mutex
	session shipit.SandboxSession
	closed  bool
}

// NewRemote returns a Remote that will clone repo into a session created by
// sandbox. Nothing is provisioned until the first operation.
func NewRemote(sandbox shipit.Sandbox, repo string, opts ...Option) *Remote {
	o := newOptions(opts)
	return &Remote{sandbox: sandbox, repo: repo, policy: o.policy, logger: o.logger}
}

// Session returns the run's sandbox session, creating it if needed.
// Concurrent callers share a single Create call.
func (r *Remote) Session(ctx context.Context) (shipit.SandboxSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.New("workspace closed")
	}
	if r.session != nil {
		return r.session, nil
	}
	r.logger.Info("provisioning sandbox", "repo", r.repo)
	s, err := r.sandbox.Create(ctx, r.repo)
	if err != nil {
		return nil, fmt.Errorf("create sandbox: %w", err)
	}
	r.logger.Info("sandbox ready", "repo", r.repo, "sandbox", s.ID())
	r.session = s
	return s, nil
}

// Provisioned reports whether a session has been created.
func (r *Remote) Provisioned() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// Close stops the session if one was created. Only the first call has any
// effect.
func (r *Remote) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.session == nil {
		return nil
	}
	r.logger.Info("stopping sandbox", "sandbox", r.session.ID())
	if err := r.session.Stop(ctx); err != nil {
		return fmt.Errorf("stop sandbox %s: %w", r.session.ID(), err)
	}
	return nil
}

// List returns the names of the entries directly under p.
func (r *Remote) List(ctx context.Context, p string) (shipit.Listing, error) {
	rel, err := r.policy.Check(p)
	if err != nil {
		return shipit.Listing{}, err
	}
	s, err := r.Session(ctx)
	if err != nil {
		return shipit.Listing{}, fmt.Errorf("%s: %v: %w", rel, err, shipit.ErrIO)
	}
	r.logger.Debug("listing files", "path", rel, "sandbox", s.ID())
	entries, err := s.List(ctx, rel)
	if err != nil {
		return shipit.Listing{}, remoteError(rel, err)
	}
	return shipit.Listing{Path: rel, Entries: entries}, nil
}

// Read returns the full content of the file at p.
func (r *Remote) Read(ctx context.Context, p string) (string, error) {
	rel, err := r.policy.Clean(p)
	if err != nil {
		return "", err
	}
	s, err := r.Session(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", rel, err, shipit.ErrIO)
	}
	r.logger.Debug("reading file", "path", rel, "sandbox", s.ID())
	content, err := s.Read(ctx, rel)
	if err != nil {
		return "", remoteError(rel, err)
	}
	return content, nil
}

// WriteOrCreate edits or creates the file at p through the session's
// whole-file write.
func (r *Remote) WriteOrCreate(ctx context.Context, p string, match *string, replacement string) (shipit.EditAction, error) {
	rel, err := r.policy.Clean(p)
	if err != nil {
		return "", err
	}
	s, err := r.Session(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", rel, err, shipit.ErrIO)
	}

	exists := true
	current, err := s.Read(ctx, rel)
	switch {
	case err == nil:
	case errors.Is(err, shipit.ErrNotFound):
		exists = false
	default:
		return "", remoteError(rel, err)
	}

	content, action := substitute(current, exists, match, replacement)
	if action == shipit.EditActionEdit {
		r.logger.Debug("editing file", "path", rel, "sandbox", s.ID())
	} else {
		r.logger.Debug("creating file", "path", rel, "overwrite", exists, "sandbox", s.ID())
	}
	if err := s.Write(ctx, rel, content); err != nil {
		return "", remoteError(rel, err)
	}
	return action, nil
}

func remoteError(rel string, err error) error {
	if errors.Is(err, shipit.ErrNotFound) || errors.Is(err, shipit.ErrIO) || errors.Is(err, shipit.ErrAccessDenied) {
		return fmt.Errorf("%s: %w", rel, err)
	}
	return fmt.Errorf("%s: %v: %w", rel, err, shipit.ErrIO)
}
