package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskkeeper/internal/ai"
	"github.com/nhle/taskkeeper/internal/credential"
	"github.com/nhle/taskkeeper/internal/theme"
)

// Suggester is the subset of *ai.Suggester the panel needs.
type Suggester interface {
	Suggest(ctx context.Context, history string) (string, error)
	SuggestNext(ctx context.Context, history string) (string, error)
}

// HistoryFunc returns the current task history prompt.
type HistoryFunc func() string

// CloseMsg signals the parent to close the suggestions panel.
type CloseMsg struct{}

// ResultMsg carries the answer of one suggestion request.
type ResultMsg struct {
	Text string
	Err  error
}

// Model is the suggestions panel. s asks for a list of tasks, n asks for
// the single next task.
type Model struct {
	suggester Suggester
	history   HistoryFunc
	viewport  viewport.Model
	spinner   spinner.Model
	text      string
	err       error
	waiting   bool
	width     int
	height    int
}

// New creates a suggestions panel. A nil suggester shows setup guidance.
func New(s Suggester, history HistoryFunc, width, height int) Model {
	vp := viewport.New(width-4, max(height-8, 4))
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		suggester: s,
		history:   history,
		viewport:  vp,
		spinner:   sp,
		width:     width,
		height:    height,
	}
}

// Update handles messages for the suggestions panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResultMsg:
		m.waiting = false
		m.text, m.err = msg.Text, msg.Err
		m.viewport.SetContent(m.renderResult())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return CloseMsg{} }
		case "s":
			return m.request(false)
		case "n":
			return m.request(true)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) request(next bool) (Model, tea.Cmd) {
	if m.suggester == nil || m.waiting {
		return m, nil
	}
	m.waiting = true

	s, history := m.suggester, m.history()
	ask := func() tea.Msg {
		var (
			text string
			err  error
		)
		if next {
			text, err = s.SuggestNext(context.Background(), history)
		} else {
			text, err = s.Suggest(context.Background(), history)
		}
		return ResultMsg{Text: text, Err: err}
	}
	return m, tea.Batch(m.spinner.Tick, ask)
}

func (m Model) renderResult() string {
	if m.err != nil {
		msg := fmt.Sprintf("Error: %v", m.err)
		if errors.Is(m.err, ai.ErrRateLimited) {
			msg = "Suggestions are rate limited. Wait a few seconds and try again."
		}
		return lipgloss.NewStyle().Foreground(theme.ColorRed).Render(msg)
	}
	return lipgloss.NewStyle().Foreground(theme.ColorWhite).Width(m.width - 8).Render(m.text)
}

// View renders the suggestions panel.
func (m Model) View() string {
	if m.suggester == nil {
		return m.renderNoAPIKey()
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var body string
	switch {
	case m.waiting:
		body = m.spinner.View() + " Thinking..."
	case m.text == "" && m.err == nil:
		body = theme.HelpStyle.Render("Press s for task ideas or n for the one thing to do next.")
	default:
		body = m.viewport.View()
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-6, 80), 0)))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Suggestions"),
		body,
		separator,
		theme.HelpStyle.Render("s suggest | n next task | esc close"),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

func (m Model) renderNoAPIKey() string {
	style := lipgloss.NewStyle().
		Width(m.width - 4).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	msg := "Suggestions require an Anthropic API key.\n\n" +
		"Store it in the system keyring:\n" +
		"  taskkeeper credential set " + credential.KeyAIAPIKey + "\n\n" +
		"Or set the " + credential.EnvAIAPIKey + " environment variable.\n\n" +
		"Press Esc to go back."

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(style.Render(msg))
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = max(height-8, 4)
}
