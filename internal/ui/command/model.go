package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskkeeper/internal/theme"
)

// Palette commands understood by the root model.
const (
	CmdNew        = "new"
	CmdCategories = "categories"
	CmdSuggest    = "suggest"
	CmdTemplate   = "template"
	CmdOverdue    = "overdue"
	CmdClear      = "clear"
	CmdExport     = "export"
	CmdSettings   = "settings"
	CmdQuit       = "quit"
)

// Names lists every palette command, in the order they are suggested.
var Names = []string{
	CmdNew, CmdCategories, CmdSuggest, CmdTemplate,
	CmdOverdue, CmdClear, CmdExport, CmdSettings, CmdQuit,
}

// CommandMsg is emitted when the user executes a command. Arg holds
// everything after the first word, trimmed.
type CommandMsg struct {
	Name string
	Arg  string
}

// Parse splits a palette line into a CommandMsg. The name is lowercased.
func Parse(line string) (CommandMsg, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return CommandMsg{}, false
	}
	name, arg, _ := strings.Cut(line, " ")
	return CommandMsg{
		Name: strings.ToLower(name),
		Arg:  strings.TrimSpace(arg),
	}, true
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Names)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		parsed, ok := Parse(m.input.Value())
		m.input.Reset()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return parsed }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	hint := theme.HelpStyle.Render(strings.Join(Names, " · "))

	content := lipgloss.JoinVertical(lipgloss.Left, title, m.input.View(), "", hint)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
