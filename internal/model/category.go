package model

import "time"

// Category is a named, colored tag grouping tasks.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CategoryDraft carries the caller-supplied fields of a new category.
type CategoryDraft struct {
	Name  string
	Color string
}

// CategoryPatch is a partial update of a category.
type CategoryPatch struct {
	Name  Field[string]
	Color Field[string]
}

// Apply merges the patch over c. UpdatedAt is left to the caller.
func (p CategoryPatch) Apply(c Category) Category {
	p.Name.applyValue(&c.Name)
	p.Color.applyValue(&c.Color)
	return c
}
