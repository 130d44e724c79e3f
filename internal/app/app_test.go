package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fwojciec/shipit"
	"github.com/fwojciec/shipit/config"
	"github.com/fwojciec/shipit/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json format", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger, err := app.NewLogger(config.Config{LogLevel: "info", LogFormat: "json"}, &buf, false)
		require.NoError(t, err)

		logger.Debug("hidden")
		logger.Info("run finished", "steps", 3)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "run finished", line["msg"])
		assert.Equal(t, float64(3), line["steps"])
	})

	t.Run("text format without color", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger, err := app.NewLogger(config.Config{LogLevel: "debug", LogFormat: "text"}, &buf, false)
		require.NoError(t, err)

		logger.Debug("model round", "step", 1)
		logger.Error("teardown failed", "error", errors.New("boom"))

		out := buf.String()
		assert.Contains(t, out, "model round")
		assert.Contains(t, out, "step=1")
		assert.Contains(t, out, "error=boom")
		assert.NotContains(t, out, "\x1b[")
	})

	t.Run("rejects unknown levels and formats", func(t *testing.T) {
		t.Parallel()
		_, err := app.NewLogger(config.Config{LogLevel: "loud", LogFormat: "text"}, &bytes.Buffer{}, false)
		assert.Error(t, err)
		_, err = app.NewLogger(config.Config{LogLevel: "info", LogFormat: "xml"}, &bytes.Buffer{}, false)
		assert.Error(t, err)
	})
}

func TestNewRunner(t *testing.T) {
	t.Parallel()

	t.Run("local only configuration refuses repository runs", func(t *testing.T) {
		t.Parallel()
		cfg := config.Config{GeminiAPIKey: "key", MaxSteps: 10, Root: t.TempDir()}
		runner, err := app.NewRunner(context.Background(), cfg, nil)
		require.NoError(t, err)

		_, err = runner.Run(context.Background(), "open a PR", "acme/web")
		assert.ErrorIs(t, err, shipit.ErrValidation)
	})

	t.Run("missing api key fails", func(t *testing.T) {
		t.Parallel()
		_, err := app.NewRunner(context.Background(), config.Config{}, nil)
		assert.ErrorIs(t, err, shipit.ErrValidation)
	})
}
