package tasks

import (
	"time"

	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
)

// allowedTransitions is the single source of truth for the task state
// machine. Terminal states have no outgoing edges.
var allowedTransitions = map[enums.TaskStatus][]enums.TaskStatus{
	enums.TaskStatusOpen: {
		enums.TaskStatusAssigned,
		enums.TaskStatusAccepted,
		enums.TaskStatusCancelled,
	},
	enums.TaskStatusAssigned: {
		enums.TaskStatusAccepted,
		enums.TaskStatusOpen,
		enums.TaskStatusCancelled,
	},
	enums.TaskStatusAccepted: {
		enums.TaskStatusPickedUp,
		enums.TaskStatusCancelled,
	},
	// IN_TRANSIT may be skipped for the simpler pickup-then-deliver flow.
	enums.TaskStatusPickedUp: {
		enums.TaskStatusInTransit,
		enums.TaskStatusDelivered,
		enums.TaskStatusCancelled,
	},
	enums.TaskStatusInTransit: {
		enums.TaskStatusDelivered,
		enums.TaskStatusCancelled,
	},
	enums.TaskStatusDelivered: {
		enums.TaskStatusCompleted,
		enums.TaskStatusCancelled,
	},
	enums.TaskStatusCompleted: {},
	enums.TaskStatusCancelled: {},
}

// AllowedNextStates returns the legal successor states for the given status.
func AllowedNextStates(current enums.TaskStatus) []enums.TaskStatus {
	next, ok := allowedTransitions[current]
	if !ok {
		return nil
	}
	out := make([]enums.TaskStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether current -> target is a legal edge.
func CanTransition(current, target enums.TaskStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

// applyTimestamp stamps the timestamp column mapped to the new status.
// OPEN has no column; transitioning back to it clears nothing.
func applyTimestamp(task *models.Task, status enums.TaskStatus, at time.Time) {
	switch status {
	case enums.TaskStatusAssigned:
		task.AssignedAt = &at
	case enums.TaskStatusAccepted:
		task.AcceptedAt = &at
	case enums.TaskStatusPickedUp:
		task.PickedUpAt = &at
	case enums.TaskStatusInTransit:
		task.InTransitAt = &at
	case enums.TaskStatusDelivered:
		task.DeliveredAt = &at
	case enums.TaskStatusCompleted:
		task.CompletedAt = &at
	case enums.TaskStatusCancelled:
		task.CancelledAt = &at
	}
}

// invalidTransitionError rejects an illegal edge. The details list the
// legal successors so the client can recover.
func invalidTransitionError(current enums.TaskStatus, message string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, message).
		WithDetails(map[string]any{
			"current_status": string(current),
			"allowed":        AllowedNextStates(current),
		})
}

// timestampColumn maps a status to its tasks column, or "" for OPEN.
func timestampColumn(status enums.TaskStatus) string {
	switch status {
	case enums.TaskStatusAssigned:
		return "assigned_at"
	case enums.TaskStatusAccepted:
		return "accepted_at"
	case enums.TaskStatusPickedUp:
		return "picked_up_at"
	case enums.TaskStatusInTransit:
		return "in_transit_at"
	case enums.TaskStatusDelivered:
		return "delivered_at"
	case enums.TaskStatusCompleted:
		return "completed_at"
	case enums.TaskStatusCancelled:
		return "cancelled_at"
	default:
		return ""
	}
}
