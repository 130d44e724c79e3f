package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/shipit"
)

// Interface compliance check.
var _ shipit.Workspace = (*Local)(nil)

// Local is a Workspace confined to a directory on the local file system.
type Local struct {
	root   string
	policy Policy
	logger *slog.Logger
}

// NewLocal returns a Local rooted at root. The root must be an existing
// directory; symlinks in it are resolved once here.
func NewLocal(root string, opts ...Option) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}
	o := newOptions(opts)
	return &Local{root: abs, policy: o.policy, logger: o.logger}, nil
}

// Root returns the absolute workspace root.
func (l *Local) Root() string {
	return l.root
}

// List returns the names of the entries directly under p.
func (l *Local) List(_ context.Context, p string) (shipit.Listing, error) {
	rel, full, err := l.resolve(p, l.policy.Check)
	if err != nil {
		return shipit.Listing{}, err
	}
	l.logger.Debug("listing files", "path", rel)
	entries, err := os.ReadDir(full)
	if err != nil {
		return shipit.Listing{}, mapError(rel, err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return shipit.Listing{Path: rel, Entries: names}, nil
}

// Read returns the full content of the file at p.
func (l *Local) Read(_ context.Context, p string) (string, error) {
	rel, full, err := l.resolve(p, l.policy.Clean)
	if err != nil {
		return "", err
	}
	l.logger.Debug("reading file", "path", rel)
	data, err := os.ReadFile(full)
	if err != nil {
		return "", mapError(rel, err)
	}
	return string(data), nil
}

// WriteOrCreate edits or creates the file at p. The new content is staged in
// a temporary file in the same directory and renamed over the target, so
// readers see either the old or the new content.
func (l *Local) WriteOrCreate(_ context.Context, p string, match *string, replacement string) (shipit.EditAction, error) {
	rel, full, err := l.resolve(p, l.policy.Clean)
	if err != nil {
		return "", err
	}

	perm := fs.FileMode(0o644)
	exists := false
	var current string
	info, err := os.Stat(full)
	switch {
	case err == nil:
		if info.IsDir() {
			return "", fmt.Errorf("%s: is a directory: %w", rel, shipit.ErrIO)
		}
		exists = true
		perm = info.Mode().Perm()
		if match != nil {
			data, err := os.ReadFile(full)
			if err != nil {
				return "", mapError(rel, err)
			}
			current = string(data)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return "", mapError(rel, err)
	}

	content, action := substitute(current, exists, match, replacement)
	if action == shipit.EditActionEdit {
		l.logger.Debug("editing file", "path", rel)
	} else {
		l.logger.Debug("creating file", "path", rel, "overwrite", exists)
	}

	if err := writeAtomic(full, []byte(content), perm); err != nil {
		return "", fmt.Errorf("%s: %v: %w", rel, err, shipit.ErrIO)
	}
	return action, nil
}

// resolve runs p through check and returns its cleaned relative form
// together with the absolute path. Absolute paths inside the root are
// accepted. Symlinks pointing outside the root are denied, and the path a
// symlink resolves to must pass check as well.
func (l *Local) resolve(p string, check func(string) (string, error)) (string, string, error) {
	if filepath.IsAbs(p) {
		r, err := filepath.Rel(l.root, p)
		if err != nil {
			return "", "", fmt.Errorf("%s: outside workspace: %w", p, shipit.ErrAccessDenied)
		}
		p = filepath.ToSlash(r)
	}
	rel, err := check(p)
	if err != nil {
		return "", "", err
	}
	full := filepath.Join(l.root, filepath.FromSlash(rel))
	resolved, err := l.realRel(full)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", rel, err)
	}
	if resolved != rel {
		if _, err := check(resolved); err != nil {
			return "", "", fmt.Errorf("%s: resolves to %s: %w", rel, resolved, shipit.ErrAccessDenied)
		}
	}
	return rel, full, nil
}

// realRel walks up from full to the nearest existing ancestor, resolves its
// symlinks and returns the resulting slash-separated path relative to the
// root with the unresolved tail appended. Locations outside the root are
// denied.
func (l *Local) realRel(full string) (string, error) {
	tail := ""
	for dir := full; ; dir = filepath.Dir(dir) {
		target, err := filepath.EvalSymlinks(dir)
		if err == nil {
			if target != l.root && !strings.HasPrefix(target, l.root+string(filepath.Separator)) {
				return "", fmt.Errorf("resolves outside workspace: %w", shipit.ErrAccessDenied)
			}
			r, err := filepath.Rel(l.root, filepath.Join(target, tail))
			if err != nil {
				return "", fmt.Errorf("resolves outside workspace: %w", shipit.ErrAccessDenied)
			}
			return filepath.ToSlash(r), nil
		}
		if dir == l.root || dir == filepath.Dir(dir) {
			return filepath.ToSlash(strings.TrimPrefix(full, l.root+string(filepath.Separator))), nil
		}
		tail = filepath.Join(filepath.Base(dir), tail)
	}
}

func writeAtomic(full string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".shipit-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, full)
}

func mapError(rel string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", rel, shipit.ErrNotFound)
	}
	return fmt.Errorf("%s: %v: %w", rel, unwrapPathError(err), shipit.ErrIO)
}

// unwrapPathError drops the absolute path from *fs.PathError so messages
// shown to the model stay workspace-relative.
func unwrapPathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
