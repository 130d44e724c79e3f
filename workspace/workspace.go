// Package workspace implements shipit.Workspace over a local directory and
// over a remote sandbox session.
package workspace

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/shipit"
)

// DefaultDenylist blocks version-control metadata and the dependency cache at
// any depth.
var DefaultDenylist = []string{
	"**/.git",
	"**/.git/**",
	"**/node_modules",
	"**/node_modules/**",
}

// Policy decides which workspace paths may be touched. Patterns use
// doublestar syntax and are matched against the cleaned, slash-separated
// path relative to the workspace root.
type Policy struct {
	Deny []string
}

// DefaultPolicy returns a Policy using DefaultDenylist.
func DefaultPolicy() Policy {
	return Policy{Deny: DefaultDenylist}
}

// Clean normalizes raw to a slash-separated path relative to the root. The
// empty path is the root ("."). Paths that are absolute or climb out of the
// root with ".." are denied.
func (p Policy) Clean(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return ".", nil
	}
	slashed := strings.ReplaceAll(raw, `\`, "/")
	if strings.HasPrefix(slashed, "/") {
		return "", fmt.Errorf("%s: absolute path: %w", raw, shipit.ErrAccessDenied)
	}
	clean := path.Clean(slashed)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%s: outside workspace: %w", raw, shipit.ErrAccessDenied)
	}
	return clean, nil
}

// Check cleans raw and additionally denies paths matching a deny pattern.
// It guards listings only; reads and edits are confined to the root by Clean.
func (p Policy) Check(raw string) (string, error) {
	clean, err := p.Clean(raw)
	if err != nil {
		return "", err
	}
	for _, pattern := range p.Deny {
		ok, err := doublestar.Match(pattern, clean)
		if err != nil {
			return "", fmt.Errorf("deny pattern %q: %w", pattern, err)
		}
		if ok {
			return "", fmt.Errorf("%s: denylisted: %w", raw, shipit.ErrAccessDenied)
		}
	}
	return clean, nil
}

// Option configures a Local or Remote workspace.
type Option func(*options)

type options struct {
	policy Policy
	logger *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{
		policy: DefaultPolicy(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPolicy replaces the default access policy.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithLogger sets the logger used for file operations.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// substitute applies the WriteOrCreate contract to the current content of a
// file. exists reports whether the file was found.
func substitute(current string, exists bool, match *string, replacement string) (string, shipit.EditAction) {
	if exists && match != nil {
		return strings.Replace(current, *match, replacement, 1), shipit.EditActionEdit
	}
	return replacement, shipit.EditActionCreate
}
