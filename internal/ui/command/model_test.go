package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want CommandMsg
		ok   bool
	}{
		{line: "", ok: false},
		{line: "   ", ok: false},
		{line: "quit", want: CommandMsg{Name: "quit"}, ok: true},
		{line: "  Template   Vacation ", want: CommandMsg{Name: "template", Arg: "Vacation"}, ok: true},
		{line: "export /tmp/out file.json", want: CommandMsg{Name: "export", Arg: "/tmp/out file.json"}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := Parse(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnterEmitsCommand(t *testing.T) {
	m := New(80, 24)
	m.input.SetValue("template grocery")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: "template", Arg: "grocery"}, cmd())
	assert.Empty(t, m.input.Value())
}
