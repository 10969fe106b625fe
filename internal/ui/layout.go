package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskkeeper/internal/theme"
)

// Layout splits the terminal into a one-line header, the content area and
// a one-line status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight is what remains below the header and above the status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - 2
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader puts title on the left and status on the right, filling
// the gap with the header background.
func (l Layout) RenderHeader(title, status string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Render(status)
	if lipgloss.Width(left)+lipgloss.Width(right) > l.Width {
		right = ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		left, fill(theme.HeaderStyle, l.Width-lipgloss.Width(left)-lipgloss.Width(right)), right)
}

// RenderStatusBar renders hints, cut to the terminal width.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.MaxWidth(l.Width).Render(hints)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		rendered, fill(theme.StatusBarStyle, l.Width-lipgloss.Width(rendered)))
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func fill(style lipgloss.Style, width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(width).
		Background(style.GetBackground()).
		Render("")
}

// HeaderStatus summarizes the collection for the right side of the header,
// for example "3 open · 1 overdue · 2 reminders". Zero counts other than
// open are omitted.
func HeaderStatus(open, overdue, reminders int) string {
	parts := []string{fmt.Sprintf("%d open", open)}
	if overdue > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue", overdue))
	}
	switch {
	case reminders == 1:
		parts = append(parts, "1 reminder")
	case reminders > 1:
		parts = append(parts, fmt.Sprintf("%d reminders", reminders))
	}
	return strings.Join(parts, " · ")
}
