// Package template ships the built-in task templates and turns them into
// tasks ready for TaskStore.BulkAdd.
package template

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/nhle/taskkeeper/internal/model"
)

//go:embed templates.yaml
var builtinYAML []byte

// StatusCompleted is the template status that imports as a completed task.
// Every other status imports as open.
const StatusCompleted = "Completed"

// Template is a named bundle of task skeletons.
type Template struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Tasks       []Item `yaml:"tasks"`
}

// Item is one task skeleton of a template.
type Item struct {
	Title    string `yaml:"title"`
	DueDate  string `yaml:"dueDate,omitempty"`
	Priority string `yaml:"priority,omitempty"`
	Status   string `yaml:"status,omitempty"`
}

// Builtin returns the templates bundled with the binary.
func Builtin() []Template {
	tpls, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("parsing builtin templates: %v", err))
	}
	return tpls
}

// Parse decodes a YAML list of templates.
func Parse(data []byte) ([]Template, error) {
	var tpls []Template
	if err := yaml.Unmarshal(data, &tpls); err != nil {
		return nil, fmt.Errorf("decoding templates: %w", err)
	}
	return tpls, nil
}

// Find looks a builtin template up by name, ignoring case.
func Find(name string) (Template, bool) {
	for _, tpl := range Builtin() {
		if strings.EqualFold(tpl.Name, name) {
			return tpl, true
		}
	}
	return Template{}, false
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	newID func() string
}

// WithIDGenerator overrides the id source for built tasks.
func WithIDGenerator(newID func() string) BuildOption {
	return func(o *buildOptions) { o.newID = newID }
}

// Build converts the template into fresh tasks stamped with now. Missing
// or unknown priorities become medium; unparseable due dates are dropped.
func Build(tpl Template, now time.Time, opts ...BuildOption) []model.Task {
	o := buildOptions{newID: func() string { return uuid.New().String() }}
	for _, opt := range opts {
		opt(&o)
	}

	now = now.UTC()
	tasks := make([]model.Task, 0, len(tpl.Tasks))
	for _, item := range tpl.Tasks {
		priority, err := model.ParsePriority(item.Priority)
		if err != nil {
			priority = model.PriorityMedium
		}
		tasks = append(tasks, model.Task{
			ID:        o.newID(),
			Title:     item.Title,
			Completed: item.Status == StatusCompleted,
			Priority:  priority,
			DueDate:   parseDueDate(item.DueDate),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return tasks
}

func parseDueDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
