package model

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority converts a priority label in any letter case
// ("High", "medium", ...) into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

// Rank orders priorities for sorting: high is 0, medium 1, low 2.
// Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Task is a to-do item owned by the task store.
type Task struct {
	// ID is generated at creation and never changes.
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`

	Priority Priority `json:"priority"`

	// DueDate is optional.
	DueDate *time.Time `json:"dueDate"`

	// ReminderDate is optional; when present a reminder should be scheduled.
	ReminderDate *time.Time `json:"reminderDate"`

	// CategoryID weakly references a Category. Deleting the category
	// does not clear it.
	CategoryID *string `json:"categoryId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of t so callers cannot alias store state
// through the pointer fields.
func (t Task) Clone() Task {
	out := t
	out.DueDate = cloneTime(t.DueDate)
	out.ReminderDate = cloneTime(t.ReminderDate)
	if t.CategoryID != nil {
		id := *t.CategoryID
		out.CategoryID = &id
	}
	return out
}

// HasCategory reports whether the task references categoryID.
// A nil categoryID matches uncategorized tasks.
func (t Task) HasCategory(categoryID *string) bool {
	if categoryID == nil || t.CategoryID == nil {
		return categoryID == nil && t.CategoryID == nil
	}
	return *categoryID == *t.CategoryID
}

// IsOverdue reports whether the task is open and its due date has passed.
func (t Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// TaskDraft carries the caller-supplied fields of a new task.
// The store assigns ID, CreatedAt and UpdatedAt.
type TaskDraft struct {
	Title        string
	Description  string
	Completed    bool
	Priority     Priority
	DueDate      *time.Time
	ReminderDate *time.Time
	CategoryID   *string
}

// TaskPatch is a partial update. Untouched fields keep their current
// value; cleared optional fields become nil.
type TaskPatch struct {
	Title        Field[string]
	Description  Field[string]
	Completed    Field[bool]
	Priority     Field[Priority]
	DueDate      Field[time.Time]
	ReminderDate Field[time.Time]
	CategoryID   Field[string]
}

// IsEmpty reports whether the patch touches no field.
func (p TaskPatch) IsEmpty() bool {
	return p.Title.IsUntouched() &&
		p.Description.IsUntouched() &&
		p.Completed.IsUntouched() &&
		p.Priority.IsUntouched() &&
		p.DueDate.IsUntouched() &&
		p.ReminderDate.IsUntouched() &&
		p.CategoryID.IsUntouched()
}

// Apply merges the patch over t. Clearing a non-optional field resets it
// to its zero value (medium for Priority). UpdatedAt is left to the caller.
func (p TaskPatch) Apply(t Task) Task {
	out := t.Clone()
	p.Title.applyValue(&out.Title)
	p.Description.applyValue(&out.Description)
	p.Completed.applyValue(&out.Completed)
	p.Priority.applyValue(&out.Priority)
	if p.Priority.IsCleared() {
		out.Priority = PriorityMedium
	}
	p.DueDate.applyPointer(&out.DueDate)
	p.ReminderDate.applyPointer(&out.ReminderDate)
	p.CategoryID.applyPointer(&out.CategoryID)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
