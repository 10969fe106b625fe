package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/store"
)

// Accepted layouts for --due and --remind, tried in order.
const (
	dateTimeLayout = "2006-01-02 15:04"
	dateLayout     = "2006-01-02"
)

const shortIDLen = 8

var (
	errNotFound  = errors.New("not found")
	errAmbiguous = errors.New("ambiguous id prefix")
)

// shortID trims a uuid for display. Any unique prefix resolves back.
func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// resolveTask finds a task by full id or unique id prefix.
func resolveTask(tasks *store.TaskStore, ref string) (model.Task, error) {
	if t, ok := tasks.Get(ref); ok {
		return t, nil
	}

	var match []model.Task
	for _, t := range tasks.All() {
		if strings.HasPrefix(t.ID, ref) {
			match = append(match, t)
		}
	}

	switch len(match) {
	case 0:
		return model.Task{}, fmt.Errorf("task %q: %w", ref, errNotFound)
	case 1:
		return match[0], nil
	default:
		return model.Task{}, fmt.Errorf("task %q matches %d tasks: %w", ref, len(match), errAmbiguous)
	}
}

// resolveCategory finds a category by name (any case), full id or
// unique id prefix.
func resolveCategory(cats *store.CategoryStore, ref string) (model.Category, error) {
	if c, ok := cats.FindByName(ref); ok {
		return c, nil
	}
	if c, ok := cats.Get(ref); ok {
		return c, nil
	}

	var match []model.Category
	for _, c := range cats.All() {
		if strings.HasPrefix(c.ID, ref) {
			match = append(match, c)
		}
	}

	switch len(match) {
	case 0:
		return model.Category{}, fmt.Errorf("category %q: %w", ref, errNotFound)
	case 1:
		return match[0], nil
	default:
		return model.Category{}, fmt.Errorf("category %q matches %d categories: %w", ref, len(match), errAmbiguous)
	}
}

// parseWhen reads a local date or date-time.
func parseWhen(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateTimeLayout, dateLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use %s or %s", s, dateLayout, dateTimeLayout)
}

func formatWhen(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(time.Local).Format(dateTimeLayout)
}
