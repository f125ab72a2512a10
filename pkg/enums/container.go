package enums

import (
	"fmt"
	"strings"
)

// ContainerKind separates customer-site containers from warehouse ones.
type ContainerKind string

const (
	ContainerKindCustomer  ContainerKind = "CUSTOMER"
	ContainerKindWarehouse ContainerKind = "WAREHOUSE"
)

var validContainerKinds = []ContainerKind{
	ContainerKindCustomer,
	ContainerKindWarehouse,
}

// String implements fmt.Stringer.
func (k ContainerKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ContainerKind.
func (k ContainerKind) IsValid() bool {
	for _, candidate := range validContainerKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// QRPrefix returns the lowercase kind segment used in QR identifiers.
func (k ContainerKind) QRPrefix() string {
	return strings.ToLower(string(k))
}

// ParseContainerKind converts raw input into a ContainerKind.
func ParseContainerKind(value string) (ContainerKind, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validContainerKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid container kind %q", value)
}

// ContainerStatus reflects where a physical container currently is.
type ContainerStatus string

const (
	ContainerStatusAtWarehouse  ContainerStatus = "AT_WAREHOUSE"
	ContainerStatusAtCustomer   ContainerStatus = "AT_CUSTOMER"
	ContainerStatusInTransit    ContainerStatus = "IN_TRANSIT"
	ContainerStatusOutOfService ContainerStatus = "OUT_OF_SERVICE"
)

var validContainerStatuses = []ContainerStatus{
	ContainerStatusAtWarehouse,
	ContainerStatusAtCustomer,
	ContainerStatusInTransit,
	ContainerStatusOutOfService,
}

// String implements fmt.Stringer.
func (s ContainerStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ContainerStatus.
func (s ContainerStatus) IsValid() bool {
	for _, candidate := range validContainerStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseContainerStatus converts raw input into a ContainerStatus.
func ParseContainerStatus(value string) (ContainerStatus, error) {
	for _, candidate := range validContainerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid container status %q", value)
}
