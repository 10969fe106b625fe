package model

import "time"

// Reminder is one entry of the reminder ledger: a local alert scheduled
// with the platform on behalf of a task.
type Reminder struct {
	// ID is the ledger record identifier.
	ID string `json:"id"`

	// TaskID back-references the task; the ledger does not own it.
	TaskID string `json:"taskId"`

	// Handle is the identifier the platform returned when scheduling,
	// used to cancel the alert.
	Handle string `json:"handle"`

	Title string    `json:"title"`
	Body  string    `json:"body"`
	Date  time.Time `json:"date"`

	// Triggered is written false at creation. Nothing in this module
	// observes platform delivery, so it never transitions.
	Triggered bool `json:"triggered"`
}
