package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/shipit"
	gh "github.com/google/go-github/v66/github"
	"github.com/google/uuid"
)

// Interface compliance check.
var _ shipit.Publisher = (*Publisher)(nil)

// BranchPrefix prefixes generated branch names.
const BranchPrefix = "shipit/"

// Publisher commits the sandbox working tree, pushes it, and opens a pull
// request through the GitHub REST API.
type Publisher struct {
	client      *gh.Client
	token       string
	authorName  string
	authorEmail string
	logger      *slog.Logger
}

// Option configures a [Publisher].
type Option func(*publisherConfig)

type publisherConfig struct {
	baseURL     string
	httpClient  *http.Client
	authorName  string
	authorEmail string
	logger      *slog.Logger
}

// WithBaseURL sets the REST API base URL, for GitHub Enterprise or tests.
func WithBaseURL(u string) Option {
	return func(c *publisherConfig) { c.baseURL = u }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *publisherConfig) { c.httpClient = hc }
}

// WithAuthor sets the commit author.
func WithAuthor(name, email string) Option {
	return func(c *publisherConfig) {
		c.authorName = name
		c.authorEmail = email
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *publisherConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Publisher authenticated with token. The token is used for
// both the API and the git push.
func New(token string, opts ...Option) (*Publisher, error) {
	cfg := publisherConfig{
		authorName:  "shipit",
		authorEmail: "shipit@users.noreply.github.com",
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(&cfg)
	}

	client := gh.NewClient(cfg.httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if cfg.baseURL != "" {
		base := cfg.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github: base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Publisher{
		client:      client,
		token:       token,
		authorName:  cfg.authorName,
		authorEmail: cfg.authorEmail,
		logger:      cfg.logger,
	}, nil
}

// Publish stages every change in the session, commits it on a new branch,
// pushes the branch, and opens a pull request against the default branch.
// It is not retried; the first failing step aborts it with an error
// wrapping shipit.ErrPublish.
func (p *Publisher) Publish(ctx context.Context, session shipit.SandboxSession, repo string, pr shipit.PullRequest) (string, error) {
	ref, err := ParseRepository(repo)
	if err != nil {
		return "", fmt.Errorf("github: %v: %w", err, shipit.ErrPublish)
	}
	branch := BranchPrefix + uuid.New().String()[:8]
	if pr.Branch != nil && *pr.Branch != "" {
		branch = *pr.Branch
	}
	logger := p.logger.With("repo", ref.String(), "branch", branch)

	commit := []string{
		"-c", "user.name=" + p.authorName,
		"-c", "user.email=" + p.authorEmail,
		"commit", "-m", pr.Title,
	}
	if pr.Body != "" {
		commit = append(commit, "-m", pr.Body)
	}
	steps := []struct {
		name string
		args []string
	}{
		{"checkout", []string{"checkout", "-b", branch}},
		{"stage", []string{"add", "-A"}},
		{"commit", commit},
		{"push", []string{"push", ref.pushURL(p.token), "HEAD:refs/heads/" + branch}},
	}
	for _, step := range steps {
		logger.Debug("git", "step", step.name)
		res, err := session.Run(ctx, "git", step.args...)
		if err != nil {
			return "", fmt.Errorf("github: git %s: %v: %w", step.name, p.redact(err.Error()), shipit.ErrPublish)
		}
		if res.ExitCode != 0 {
			return "", fmt.Errorf("github: git %s: exit status %d: %s: %w",
				step.name, res.ExitCode, p.redact(strings.TrimSpace(res.Stderr)), shipit.ErrPublish)
		}
	}

	r, _, err := p.client.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		return "", fmt.Errorf("github: get repository: %v: %w", err, shipit.ErrPublish)
	}
	base := r.GetDefaultBranch()
	if base == "" {
		base = "main"
	}

	created, _, err := p.client.PullRequests.Create(ctx, ref.Owner, ref.Name, &gh.NewPullRequest{
		Title: gh.String(pr.Title),
		Head:  gh.String(branch),
		Base:  gh.String(base),
		Body:  gh.String(pr.Body),
	})
	if err != nil {
		return "", fmt.Errorf("github: create pull request: %v: %w", err, shipit.ErrPublish)
	}
	logger.Info("pull request opened", "url", created.GetHTMLURL(), "base", base)
	return created.GetHTMLURL(), nil
}

func (p *Publisher) redact(s string) string {
	if p.token == "" {
		return s
	}
	return strings.ReplaceAll(s, p.token, "***")
}
