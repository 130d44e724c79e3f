// Package github publishes sandbox changes as GitHub pull requests.
package github

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fwojciec/shipit"
)

// Repository identifies a repository on a GitHub host.
type Repository struct {
	Host  string
	Owner string
	Name  string
}

// String returns "owner/name".
func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// pushURL returns the HTTPS remote authenticated with token.
func (r Repository) pushURL(token string) string {
	u := url.URL{
		Scheme: "https",
		Host:   r.Host,
		Path:   "/" + r.Owner + "/" + r.Name + ".git",
	}
	if token != "" {
		u.User = url.UserPassword("x-access-token", token)
	}
	return u.String()
}

// ParseRepository accepts "https://host/owner/repo(.git)",
// "git@host:owner/repo(.git)", and "owner/repo" (github.com).
func ParseRepository(ref string) (Repository, error) {
	ref = strings.TrimSpace(ref)
	var host, rest string
	switch {
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		u, err := url.Parse(ref)
		if err != nil {
			return Repository{}, fmt.Errorf("parse repository %q: %w", ref, shipit.ErrValidation)
		}
		host, rest = u.Host, strings.Trim(u.Path, "/")
	case strings.HasPrefix(ref, "git@"):
		h, p, ok := strings.Cut(strings.TrimPrefix(ref, "git@"), ":")
		if !ok {
			return Repository{}, fmt.Errorf("parse repository %q: missing ':': %w", ref, shipit.ErrValidation)
		}
		host, rest = h, p
	default:
		host, rest = "github.com", strings.Trim(ref, "/")
	}

	rest = strings.TrimSuffix(rest, ".git")
	owner, name, ok := strings.Cut(rest, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") || host == "" {
		return Repository{}, fmt.Errorf("parse repository %q: want owner/repo: %w", ref, shipit.ErrValidation)
	}
	return Repository{Host: host, Owner: owner, Name: name}, nil
}
