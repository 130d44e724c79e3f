package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/shipit"
)

// Interface compliance checks.
var (
	_ shipit.Sandbox        = (*Client)(nil)
	_ shipit.SandboxSession = (*Session)(nil)
)

// Client implements [shipit.Sandbox] against the sandbox service.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a [Client] for the service at baseURL, authenticating with
// token when it is non-empty.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Create provisions a sandbox with a clone of repo.
func (c *Client) Create(ctx context.Context, repo string) (shipit.SandboxSession, error) {
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, sandboxesPath, nil, createRequest{Source: source{URL: repo}}, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("sandbox: create returned no id: %w", shipit.ErrIO)
	}
	return &Session{client: c, id: resp.ID}, nil
}

// Session is one provisioned sandbox.
type Session struct {
	client *Client
	id     string
}

// ID returns the sandbox identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) path(suffix string) string {
	return sandboxesPath + "/" + url.PathEscape(s.id) + suffix
}

// List returns the entry names directly under path.
func (s *Session) List(ctx context.Context, path string) ([]string, error) {
	var resp listResponse
	q := url.Values{"path": {path}}
	if err := s.client.do(ctx, http.MethodGet, s.path("/files"), q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// Read returns the content of the file at path.
func (s *Session) Read(ctx context.Context, path string) (string, error) {
	var resp contentResponse
	q := url.Values{"path": {path}}
	if err := s.client.do(ctx, http.MethodGet, s.path("/files/content"), q, nil, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Write replaces the file at path with content in a single request.
func (s *Session) Write(ctx context.Context, path, content string) error {
	return s.client.do(ctx, http.MethodPut, s.path("/files/content"), nil, writeRequest{Path: path, Content: content}, nil)
}

// Run executes cmd with args in the repository checkout.
func (s *Session) Run(ctx context.Context, cmd string, args ...string) (shipit.CommandResult, error) {
	if args == nil {
		args = []string{}
	}
	var resp commandResponse
	if err := s.client.do(ctx, http.MethodPost, s.path("/commands"), nil, commandRequest{Cmd: cmd, Args: args}, &resp); err != nil {
		return shipit.CommandResult{}, err
	}
	return shipit.CommandResult{ExitCode: resp.ExitCode, Stdout: resp.Stdout, Stderr: resp.Stderr}, nil
}

// Stop releases the sandbox.
func (s *Session) Stop(ctx context.Context) error {
	return s.client.do(ctx, http.MethodPost, s.path("/stop"), nil, nil, nil)
}

// do sends a JSON request and decodes a JSON response into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("sandbox: %w", err)
		}
		body = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("sandbox: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("sandbox: %w", err)
		}
		return fmt.Errorf("sandbox: %v: %w", err, shipit.ErrIO)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseHTTPError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sandbox: decode response: %v: %w", err, shipit.ErrIO)
	}
	return nil
}

func parseHTTPError(resp *http.Response) error {
	kind := shipit.ErrIO
	if resp.StatusCode == http.StatusNotFound {
		kind = shipit.ErrNotFound
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("sandbox: HTTP %d (failed to read body: %v): %w", resp.StatusCode, err, kind)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return fmt.Errorf("sandbox: HTTP %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(body)), kind)
	}
	return fmt.Errorf("sandbox: %s: %s: %w", apiErr.Error.Code, apiErr.Error.Message, kind)
}
