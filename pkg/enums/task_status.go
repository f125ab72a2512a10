package enums

import "fmt"

// TaskStatus tracks the lifecycle of a collection task.
type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "OPEN"
	TaskStatusAssigned  TaskStatus = "ASSIGNED"
	TaskStatusAccepted  TaskStatus = "ACCEPTED"
	TaskStatusPickedUp  TaskStatus = "PICKED_UP"
	TaskStatusInTransit TaskStatus = "IN_TRANSIT"
	TaskStatusDelivered TaskStatus = "DELIVERED"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

var validTaskStatuses = []TaskStatus{
	TaskStatusOpen,
	TaskStatusAssigned,
	TaskStatusAccepted,
	TaskStatusPickedUp,
	TaskStatusInTransit,
	TaskStatusDelivered,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

// Legacy data stored open tasks under two interchangeable labels. They are
// folded into OPEN once at parse time and never compared downstream.
var legacyTaskStatusAliases = map[string]TaskStatus{
	"OFFEN":   TaskStatusOpen,
	"PLANNED": TaskStatusOpen,
}

// String implements fmt.Stringer.
func (t TaskStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known canonical TaskStatus.
func (t TaskStatus) IsValid() bool {
	for _, candidate := range validTaskStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (t TaskStatus) IsTerminal() bool {
	return t == TaskStatusCompleted || t == TaskStatusCancelled
}

// ParseTaskStatus converts raw input into a canonical TaskStatus, resolving
// legacy aliases.
func ParseTaskStatus(value string) (TaskStatus, error) {
	if canonical, ok := legacyTaskStatusAliases[value]; ok {
		return canonical, nil
	}
	for _, candidate := range validTaskStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task status %q", value)
}
