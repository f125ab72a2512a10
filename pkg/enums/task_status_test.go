package enums

import "testing"

func TestParseTaskStatus_LegacyAliases(t *testing.T) {
	for _, legacy := range []string{"OFFEN", "PLANNED"} {
		status, err := ParseTaskStatus(legacy)
		if err != nil {
			t.Fatalf("ParseTaskStatus(%q) returned error: %v", legacy, err)
		}
		if status != TaskStatusOpen {
			t.Fatalf("expected %q to canonicalize to OPEN, got %q", legacy, status)
		}
	}
}

func TestParseTaskStatus_Canonical(t *testing.T) {
	status, err := ParseTaskStatus("PICKED_UP")
	if err != nil {
		t.Fatalf("ParseTaskStatus returned error: %v", err)
	}
	if status != TaskStatusPickedUp {
		t.Fatalf("unexpected status %q", status)
	}
}

func TestParseTaskStatus_Invalid(t *testing.T) {
	if _, err := ParseTaskStatus("SHIPPED"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestTaskStatusIsTerminal(t *testing.T) {
	if !TaskStatusCompleted.IsTerminal() || !TaskStatusCancelled.IsTerminal() {
		t.Fatal("expected COMPLETED and CANCELLED to be terminal")
	}
	for _, status := range []TaskStatus{TaskStatusOpen, TaskStatusAssigned, TaskStatusAccepted, TaskStatusPickedUp, TaskStatusInTransit, TaskStatusDelivered} {
		if status.IsTerminal() {
			t.Fatalf("expected %q to be non-terminal", status)
		}
	}
}
