package enums

import "fmt"

// TaskPriority orders tasks in driver lists.
type TaskPriority string

const (
	TaskPriorityNormal TaskPriority = "normal"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

var validTaskPriorities = []TaskPriority{
	TaskPriorityNormal,
	TaskPriorityHigh,
	TaskPriorityUrgent,
}

// String implements fmt.Stringer.
func (p TaskPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known TaskPriority.
func (p TaskPriority) IsValid() bool {
	for _, candidate := range validTaskPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseTaskPriority converts raw input into a TaskPriority.
func ParseTaskPriority(value string) (TaskPriority, error) {
	for _, candidate := range validTaskPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task priority %q", value)
}

// QuantityUnit is the measurement unit attached to amounts.
type QuantityUnit string

const (
	QuantityUnitKilogram   QuantityUnit = "kg"
	QuantityUnitTonne      QuantityUnit = "t"
	QuantityUnitCubicMeter QuantityUnit = "m3"
	QuantityUnitPieces     QuantityUnit = "pcs"
)

var validQuantityUnits = []QuantityUnit{
	QuantityUnitKilogram,
	QuantityUnitTonne,
	QuantityUnitCubicMeter,
	QuantityUnitPieces,
}

// String implements fmt.Stringer.
func (u QuantityUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known QuantityUnit.
func (u QuantityUnit) IsValid() bool {
	for _, candidate := range validQuantityUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseQuantityUnit converts raw input into a QuantityUnit.
func ParseQuantityUnit(value string) (QuantityUnit, error) {
	for _, candidate := range validQuantityUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quantity unit %q", value)
}
