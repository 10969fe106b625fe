// Package ai requests task suggestions from a hosted language model.
package ai

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nhle/taskkeeper/internal/model"
)

// MaxHistory caps how many tasks BuildHistory includes.
const MaxHistory = 50

// BuildHistory renders the most recently updated tasks, one per line, as
// the context sent with a suggestion request.
func BuildHistory(tasks []model.Task) string {
	recent := slices.Clone(tasks)
	slices.SortStableFunc(recent, func(a, b model.Task) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	if len(recent) > MaxHistory {
		recent = recent[:MaxHistory]
	}

	var sb strings.Builder
	for i, t := range recent {
		if i > 0 {
			sb.WriteString("\n")
		}
		status := "Pending"
		if t.Completed {
			status = "Completed"
		}
		due := "none"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		sb.WriteString(fmt.Sprintf("Title: %s, Status: %s, Priority: %s, Due: %s",
			t.Title, status, t.Priority, due))
	}
	return sb.String()
}
