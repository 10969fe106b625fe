package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestApplyPinsBackground(t *testing.T) {
	orig := lipgloss.HasDarkBackground()
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(orig) })

	Apply("Light")
	assert.False(t, lipgloss.HasDarkBackground())

	Apply(ThemeDark)
	assert.True(t, lipgloss.HasDarkBackground())

	Apply(ThemeDefault)
	assert.True(t, lipgloss.HasDarkBackground())
}

func TestPriorityLabel(t *testing.T) {
	assert.Equal(t, "HIGH", PriorityLabel("high"))
	assert.Equal(t, "MED", PriorityLabel("medium"))
	assert.Equal(t, "?", PriorityLabel("urgent"))
}
