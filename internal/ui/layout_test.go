package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderStatus(t *testing.T) {
	assert.Equal(t, "0 open", HeaderStatus(0, 0, 0))
	assert.Equal(t, "4 open · 2 overdue · 1 reminder", HeaderStatus(4, 2, 1))
	assert.Equal(t, "1 open · 3 reminders", HeaderStatus(1, 0, 3))
}

func TestLayoutContentHeight(t *testing.T) {
	l := NewLayout(100, 30)
	assert.Equal(t, 100, l.ContentWidth())
	assert.Equal(t, 28, l.ContentHeight())
}

func TestLayoutTinyTerminal(t *testing.T) {
	l := NewLayout(10, 1)
	assert.Equal(t, 0, l.ContentHeight())
	assert.NotContains(t, l.RenderHeader("Taskkeeper", "12 open · 3 overdue"), "overdue")
}
