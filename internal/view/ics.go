package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/taskkeeper/internal/model"
)

// ErrNoDueDate is returned when exporting a task without a due date.
var ErrNoDueDate = errors.New("task due date required for calendar export")

const (
	icsDateLayout  = "20060102"
	icsStampLayout = "20060102T150405Z"
)

// TaskICS renders task as a one-event iCalendar document. The event
// spans the due day in loc; a reminder date adds a display alarm.
func TaskICS(task model.Task, now time.Time, loc *time.Location) (string, error) {
	if task.DueDate == nil {
		return "", ErrNoDueDate
	}
	if loc == nil {
		loc = time.Local
	}

	due := task.DueDate.In(loc)
	start := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	title := strings.TrimSpace(task.Title)
	if title == "" {
		title = "Task"
	}

	uid := fmt.Sprintf("task-%s@taskkeeper", task.ID)
	if task.ID == "" {
		uid = fmt.Sprintf("task-export-%d@taskkeeper", now.UnixNano())
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//taskkeeper//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(uid),
		"DTSTAMP:" + now.UTC().Format(icsStampLayout),
		"SUMMARY:" + escapeICSText(title),
		"DTSTART;VALUE=DATE:" + start.Format(icsDateLayout),
		"DTEND;VALUE=DATE:" + end.Format(icsDateLayout),
		"PRIORITY:" + icsPriority(task.Priority),
	}
	if desc := strings.TrimSpace(task.Description); desc != "" {
		lines = append(lines, "DESCRIPTION:"+escapeICSText(desc))
	}
	if task.ReminderDate != nil {
		lines = append(lines,
			"BEGIN:VALARM",
			"ACTION:DISPLAY",
			"DESCRIPTION:"+escapeICSText("Reminder: "+title),
			"TRIGGER;VALUE=DATE-TIME:"+task.ReminderDate.UTC().Format(icsStampLayout),
			"END:VALARM",
		)
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")

	return strings.Join(lines, "\r\n"), nil
}

// icsPriority maps to RFC 5545 levels: 1 highest, 9 lowest.
func icsPriority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "1"
	case model.PriorityLow:
		return "9"
	default:
		return "5"
	}
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
