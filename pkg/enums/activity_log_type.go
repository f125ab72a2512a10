package enums

import "fmt"

// ActivityLogType classifies audit trail entries.
type ActivityLogType string

const (
	ActivityTaskCreated                 ActivityLogType = "TASK_CREATED"
	ActivityTaskAssigned                ActivityLogType = "TASK_ASSIGNED"
	ActivityTaskAccepted                ActivityLogType = "TASK_ACCEPTED"
	ActivityTaskPickedUp                ActivityLogType = "TASK_PICKED_UP"
	ActivityTaskInTransit               ActivityLogType = "TASK_IN_TRANSIT"
	ActivityTaskDelivered               ActivityLogType = "TASK_DELIVERED"
	ActivityTaskCompleted               ActivityLogType = "TASK_COMPLETED"
	ActivityTaskCancelled               ActivityLogType = "TASK_CANCELLED"
	ActivityTaskDeleted                 ActivityLogType = "TASK_DELETED"
	ActivityContainerScannedAtCustomer  ActivityLogType = "CONTAINER_SCANNED_AT_CUSTOMER"
	ActivityContainerScannedAtWarehouse ActivityLogType = "CONTAINER_SCANNED_AT_WAREHOUSE"
	ActivityContainerStatusChanged      ActivityLogType = "CONTAINER_STATUS_CHANGED"
	ActivityWeightRecorded              ActivityLogType = "WEIGHT_RECORDED"
	ActivityManualEdit                  ActivityLogType = "MANUAL_EDIT"
	ActivitySystemEvent                 ActivityLogType = "SYSTEM_EVENT"
)

var validActivityLogTypes = []ActivityLogType{
	ActivityTaskCreated,
	ActivityTaskAssigned,
	ActivityTaskAccepted,
	ActivityTaskPickedUp,
	ActivityTaskInTransit,
	ActivityTaskDelivered,
	ActivityTaskCompleted,
	ActivityTaskCancelled,
	ActivityTaskDeleted,
	ActivityContainerScannedAtCustomer,
	ActivityContainerScannedAtWarehouse,
	ActivityContainerStatusChanged,
	ActivityWeightRecorded,
	ActivityManualEdit,
	ActivitySystemEvent,
}

// String implements fmt.Stringer.
func (a ActivityLogType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityLogType.
func (a ActivityLogType) IsValid() bool {
	for _, candidate := range validActivityLogTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityLogType converts raw input into an ActivityLogType.
func ParseActivityLogType(value string) (ActivityLogType, error) {
	for _, candidate := range validActivityLogTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity log type %q", value)
}
