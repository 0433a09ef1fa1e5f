package queue

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a conversion item.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusSkipped   Status = "skipped"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusDone,
	StatusSkipped,
	StatusError,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Transitions are monotonic: skipped and cancelled apply only at the item
// boundary before processing starts, and running resolves to done or error.
var allowedTransitions = map[Status]map[Status]struct{}{
	StatusQueued: {
		StatusRunning:   {},
		StatusSkipped:   {},
		StatusCancelled: {},
	},
	StatusRunning: {
		StatusDone:  {},
		StatusError: {},
	},
}

// Format note values recorded per output format on an item.
const (
	FormatWritten  = "written"
	FormatExisting = "existing"
)

// Item represents one queued source file with its conversion state.
type Item struct {
	ID         int64
	SourcePath string
	Status     Status
	// ErrorMessage is set only when Status is error.
	ErrorMessage string
	// Outputs lists produced output paths; non-empty only when Status is done.
	Outputs []string
	// FormatNotes records a per-format indicator: "written" on success,
	// "existing" when skip-existing matched the planned path.
	FormatNotes map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status is final for the current run.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDone, StatusSkipped, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the state machine permits moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	targets, ok := allowedTransitions[s]
	if !ok {
		return false
	}
	_, ok = targets[next]
	return ok
}

// Transition moves the item to next, rejecting transitions the state machine
// does not permit.
func (i *Item) Transition(next Status) error {
	if !i.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid status transition %s -> %s for item %d", i.Status, next, i.ID)
	}
	i.Status = next
	return nil
}

// MarkError records a terminal error on the item.
func (i *Item) MarkError(message string) error {
	if err := i.Transition(StatusError); err != nil {
		return err
	}
	i.ErrorMessage = message
	i.Outputs = nil
	return nil
}

// NoteFormat records a per-format indicator on the item.
func (i *Item) NoteFormat(format, note string) {
	if i.FormatNotes == nil {
		i.FormatNotes = make(map[string]string, 2)
	}
	i.FormatNotes[format] = note
}
