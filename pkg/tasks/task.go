package tasks

import (
	"fmt"
	"strings"

	"pwkm/pkg/clock"
	"pwkm/pkg/recur"
)

// Status of a task. Recurring tasks are never terminally Done; completion
// advances the due date and leaves them Active.
type Status string

const (
	StatusActive Status = "Active"
	StatusDone   Status = "Done"
)

// Priority is an optional High/Medium/Low label.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
	PriorityNone   Priority = ""
)

// Task is one tracked obligation. Name is the primary key (exact,
// case-sensitive). Ref is an opaque link into the external note service;
// it is round-tripped and never interpreted.
type Task struct {
	Name       string
	Due        clock.Date
	Category   string
	Recurrence recur.Rule
	Priority   Priority
	Status     Status
	Ref        string
}

// IsDone reports whether the task is terminally complete.
func (t Task) IsDone() bool { return t.Status == StatusDone }

// EffectiveRule returns the rule to use when completing the task,
// applying the name-embedded "(ordinal weekday)" upgrade for plain
// monthly tasks. The stored rule stays authoritative for everything else.
func (t Task) EffectiveRule() (recur.Rule, error) {
	return recur.FromName(t.Name, t.Recurrence)
}

func parseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active", "not started", "in progress", "pending", "to do":
		return StatusActive, nil
	case "done", "complete", "completed":
		return StatusDone, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func parsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityNone, nil
	case "high":
		return PriorityHigh, nil
	case "medium", "med":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}
