package workspace_test

import (
	"testing"

	"github.com/fwojciec/shipit"
	"github.com/fwojciec/shipit/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Check(t *testing.T) {
	t.Parallel()

	policy := workspace.DefaultPolicy()

	allowed := map[string]string{
		"":                    ".",
		"   ":                 ".",
		".":                   ".",
		"./src":               "src",
		"src/../README.md":    "README.md",
		".github/ci.yml":      ".github/ci.yml",
		".gitignore":          ".gitignore",
		"pkg/node_modules.go": "pkg/node_modules.go",
	}
	for in, want := range allowed {
		t.Run("allows "+in, func(t *testing.T) {
			t.Parallel()
			got, err := policy.Check(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	denied := []string{
		".git",
		".git/config",
		"./.git",
		"sub/.git/HEAD",
		"node_modules",
		"node_modules/react/index.js",
		"packages/app/node_modules",
		"src/../.git",
		"..",
		"../outside.txt",
		"/etc/passwd",
	}
	for _, in := range denied {
		t.Run("denies "+in, func(t *testing.T) {
			t.Parallel()
			_, err := policy.Check(in)
			assert.ErrorIs(t, err, shipit.ErrAccessDenied)
		})
	}

	t.Run("clean ignores the deny list", func(t *testing.T) {
		t.Parallel()
		got, err := policy.Clean("./node_modules/react/index.js")
		require.NoError(t, err)
		assert.Equal(t, "node_modules/react/index.js", got)
		_, err = policy.Clean("../outside.txt")
		assert.ErrorIs(t, err, shipit.ErrAccessDenied)
		_, err = policy.Clean("/etc/passwd")
		assert.ErrorIs(t, err, shipit.ErrAccessDenied)
	})

	t.Run("custom deny list", func(t *testing.T) {
		t.Parallel()
		p := workspace.Policy{Deny: []string{"**/*.pem"}}
		_, err := p.Check("certs/server.pem")
		assert.ErrorIs(t, err, shipit.ErrAccessDenied)
		_, err = p.Check(".git")
		assert.NoError(t, err)
	})
}
