package bubbletea_test

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/shipit"
	bt "github.com/fwojciec/shipit/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestNewStyles(t *testing.T) {
	t.Parallel()

	t.Run("default theme", func(t *testing.T) {
		t.Parallel()
		styles := bt.NewStyles(shipit.DefaultTheme())

		assert.Equal(t, lipgloss.Color("4"), styles.Step.GetForeground())
		assert.True(t, styles.Step.GetBold())
		assert.Equal(t, lipgloss.Color("3"), styles.Tool.GetForeground())
		assert.Equal(t, lipgloss.Color("1"), styles.Error.GetForeground())
		assert.Equal(t, lipgloss.Color("2"), styles.Success.GetForeground())
		assert.Equal(t, lipgloss.Color("3"), styles.Warning.GetForeground())
		assert.Equal(t, lipgloss.Color("8"), styles.Muted.GetForeground())
		assert.True(t, styles.Muted.GetFaint())
		assert.Equal(t, lipgloss.Color("5"), styles.Accent.GetForeground())
	})

	t.Run("negative index means no color", func(t *testing.T) {
		t.Parallel()
		theme := shipit.DefaultTheme()
		theme.Error = -1
		styles := bt.NewStyles(theme)

		assert.Equal(t, lipgloss.NoColor{}, styles.Error.GetForeground())
	})
}
