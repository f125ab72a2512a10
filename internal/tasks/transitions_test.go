package tasks

import (
	"testing"
	"time"

	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
)

func TestCanTransition_Table(t *testing.T) {
	cases := []struct {
		from    enums.TaskStatus
		to      enums.TaskStatus
		allowed bool
	}{
		{enums.TaskStatusOpen, enums.TaskStatusAssigned, true},
		{enums.TaskStatusOpen, enums.TaskStatusAccepted, true},
		{enums.TaskStatusOpen, enums.TaskStatusCancelled, true},
		{enums.TaskStatusOpen, enums.TaskStatusPickedUp, false},
		{enums.TaskStatusOpen, enums.TaskStatusDelivered, false},
		{enums.TaskStatusAssigned, enums.TaskStatusAccepted, true},
		{enums.TaskStatusAssigned, enums.TaskStatusOpen, true},
		{enums.TaskStatusAssigned, enums.TaskStatusPickedUp, false},
		{enums.TaskStatusAccepted, enums.TaskStatusPickedUp, true},
		{enums.TaskStatusAccepted, enums.TaskStatusDelivered, false},
		{enums.TaskStatusPickedUp, enums.TaskStatusInTransit, true},
		{enums.TaskStatusPickedUp, enums.TaskStatusDelivered, true},
		{enums.TaskStatusInTransit, enums.TaskStatusDelivered, true},
		{enums.TaskStatusInTransit, enums.TaskStatusPickedUp, false},
		{enums.TaskStatusDelivered, enums.TaskStatusCompleted, true},
		{enums.TaskStatusCompleted, enums.TaskStatusCancelled, false},
		{enums.TaskStatusCancelled, enums.TaskStatusOpen, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestAllowedNextStates_TerminalEmpty(t *testing.T) {
	if states := AllowedNextStates(enums.TaskStatusCompleted); len(states) != 0 {
		t.Fatalf("expected no successors for COMPLETED, got %v", states)
	}
	if states := AllowedNextStates(enums.TaskStatusCancelled); len(states) != 0 {
		t.Fatalf("expected no successors for CANCELLED, got %v", states)
	}
}

func TestAllowedNextStates_CopyIsolated(t *testing.T) {
	states := AllowedNextStates(enums.TaskStatusOpen)
	states[0] = enums.TaskStatusCompleted
	if allowedTransitions[enums.TaskStatusOpen][0] == enums.TaskStatusCompleted {
		t.Fatal("AllowedNextStates must not expose the internal table")
	}
}

func TestApplyTimestamp(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	task := &models.Task{}
	applyTimestamp(task, enums.TaskStatusAccepted, at)
	if task.AcceptedAt == nil || !task.AcceptedAt.Equal(at) {
		t.Fatalf("expected accepted_at stamped, got %+v", task.AcceptedAt)
	}
	if task.AssignedAt != nil || task.PickedUpAt != nil {
		t.Fatal("no other timestamp may be stamped")
	}

	// OPEN has no timestamp column.
	open := &models.Task{}
	applyTimestamp(open, enums.TaskStatusOpen, at)
	if *open != (models.Task{}) {
		t.Fatal("transition to OPEN must stamp nothing")
	}
}

func TestTimestampColumn(t *testing.T) {
	want := map[enums.TaskStatus]string{
		enums.TaskStatusOpen:      "",
		enums.TaskStatusAssigned:  "assigned_at",
		enums.TaskStatusAccepted:  "accepted_at",
		enums.TaskStatusPickedUp:  "picked_up_at",
		enums.TaskStatusInTransit: "in_transit_at",
		enums.TaskStatusDelivered: "delivered_at",
		enums.TaskStatusCompleted: "completed_at",
		enums.TaskStatusCancelled: "cancelled_at",
	}
	for status, column := range want {
		if got := timestampColumn(status); got != column {
			t.Fatalf("timestampColumn(%s) = %q, want %q", status, got, column)
		}
	}
}
