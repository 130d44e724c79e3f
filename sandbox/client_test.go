package sandbox_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/fwojciec/shipit"
	"github.com/fwojciec/shipit/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService is an in-memory sandbox service.
type fakeService struct {
	mu      sync.Mutex
	files   map[string]string
	stopped bool
	repo    string
	cmds    [][]string
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sandboxes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req struct {
			Source struct {
				URL string `json:"url"`
			} `json:"source"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.repo = req.Source.URL
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "sbx-42"})
	})
	mux.HandleFunc("GET /v1/sandboxes/{id}/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sbx-42", r.PathValue("id"))
		if r.URL.Query().Get("path") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"not_found","message":"no such directory"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string][]string{"entries": {"package.json", "src"}})
	})
	mux.HandleFunc("GET /v1/sandboxes/{id}/files/content", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c, ok := f.files[r.URL.Query().Get("path")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"content": c})
	})
	mux.HandleFunc("PUT /v1/sandboxes/{id}/files/content", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path    string `json:"path"`
			Content string `json:"content"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.files[req.Path] = req.Content
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /v1/sandboxes/{id}/commands", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Cmd  string   `json:"cmd"`
			Args []string `json:"args"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.cmds = append(f.cmds, append([]string{req.Cmd}, req.Args...))
		f.mu.Unlock()
		code := 0
		if req.Cmd == "false" {
			code = 1
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"exitCode": code, "stdout": "out", "stderr": "err"})
	})
	mux.HandleFunc("POST /v1/sandboxes/{id}/stop", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func newClient(t *testing.T) (*sandbox.Client, *fakeService) {
	t.Helper()
	fs := &fakeService{files: map[string]string{"README.md": "# hi"}}
	srv := httptest.NewServer(fs.handler(t))
	t.Cleanup(srv.Close)
	return sandbox.New(srv.URL+"/", "secret", sandbox.WithHTTPClient(srv.Client())), fs
}

func TestClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create, use, and stop a sandbox", func(t *testing.T) {
		t.Parallel()
		c, fs := newClient(t)

		s, err := c.Create(ctx, "https://github.com/owner/repo")
		require.NoError(t, err)
		assert.Equal(t, "sbx-42", s.ID())
		assert.Equal(t, "https://github.com/owner/repo", fs.repo)

		entries, err := s.List(ctx, ".")
		require.NoError(t, err)
		assert.Equal(t, []string{"package.json", "src"}, entries)

		content, err := s.Read(ctx, "README.md")
		require.NoError(t, err)
		assert.Equal(t, "# hi", content)

		require.NoError(t, s.Write(ctx, "src/new.ts", "export {}"))
		assert.Equal(t, "export {}", fs.files["src/new.ts"])

		res, err := s.Run(ctx, "git", "status", "--porcelain")
		require.NoError(t, err)
		assert.Equal(t, shipit.CommandResult{ExitCode: 0, Stdout: "out", Stderr: "err"}, res)
		assert.Equal(t, [][]string{{"git", "status", "--porcelain"}}, fs.cmds)

		require.NoError(t, s.Stop(ctx))
		assert.True(t, fs.stopped)
	})

	t.Run("non-zero exit is a result, not an error", func(t *testing.T) {
		t.Parallel()
		c, _ := newClient(t)
		s, err := c.Create(ctx, "owner/repo")
		require.NoError(t, err)

		res, err := s.Run(ctx, "false")
		require.NoError(t, err)
		assert.Equal(t, 1, res.ExitCode)
	})

	t.Run("404 maps to not found with the server message", func(t *testing.T) {
		t.Parallel()
		c, _ := newClient(t)
		s, err := c.Create(ctx, "owner/repo")
		require.NoError(t, err)

		_, err = s.List(ctx, "missing")
		assert.ErrorIs(t, err, shipit.ErrNotFound)
		assert.Contains(t, err.Error(), "no such directory")

		_, err = s.Read(ctx, "nope.ts")
		assert.ErrorIs(t, err, shipit.ErrNotFound)
	})
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("server error maps to io error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		}))
		t.Cleanup(srv.Close)

		_, err := sandbox.New(srv.URL, "").Create(ctx, "owner/repo")
		assert.ErrorIs(t, err, shipit.ErrIO)
		assert.Contains(t, err.Error(), "HTTP 500")
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("missing id is an io error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		t.Cleanup(srv.Close)

		_, err := sandbox.New(srv.URL, "").Create(ctx, "owner/repo")
		assert.ErrorIs(t, err, shipit.ErrIO)
	})

	t.Run("no authorization header without token", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"id":"x"}`))
		}))
		t.Cleanup(srv.Close)

		_, err := sandbox.New(srv.URL, "").Create(ctx, "owner/repo")
		require.NoError(t, err)
	})

	t.Run("unreachable service is an io error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := sandbox.New(url, "").Create(ctx, "owner/repo")
		assert.ErrorIs(t, err, shipit.ErrIO)
	})
}
