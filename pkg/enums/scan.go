package enums

import "fmt"

// ScanContext records why a container was scanned.
type ScanContext string

const (
	ScanContextWarehouseInfo           ScanContext = "WAREHOUSE_INFO"
	ScanContextCustomerInfo            ScanContext = "CUSTOMER_INFO"
	ScanContextTaskAcceptAtCustomer    ScanContext = "TASK_ACCEPT_AT_CUSTOMER"
	ScanContextTaskPickup              ScanContext = "TASK_PICKUP"
	ScanContextTaskCompleteAtWarehouse ScanContext = "TASK_COMPLETE_AT_WAREHOUSE"
	ScanContextInventoryCheck          ScanContext = "INVENTORY_CHECK"
	ScanContextMaintenance             ScanContext = "MAINTENANCE"
)

var validScanContexts = []ScanContext{
	ScanContextWarehouseInfo,
	ScanContextCustomerInfo,
	ScanContextTaskAcceptAtCustomer,
	ScanContextTaskPickup,
	ScanContextTaskCompleteAtWarehouse,
	ScanContextInventoryCheck,
	ScanContextMaintenance,
}

// String implements fmt.Stringer.
func (s ScanContext) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ScanContext.
func (s ScanContext) IsValid() bool {
	for _, candidate := range validScanContexts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseScanContext converts raw input into a ScanContext.
func ParseScanContext(value string) (ScanContext, error) {
	for _, candidate := range validScanContexts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scan context %q", value)
}

// ScanResult captures whether a scan succeeded.
type ScanResult string

const (
	ScanResultSuccess ScanResult = "SUCCESS"
	ScanResultFailure ScanResult = "FAILURE"
)

var validScanResults = []ScanResult{
	ScanResultSuccess,
	ScanResultFailure,
}

// String implements fmt.Stringer.
func (s ScanResult) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ScanResult.
func (s ScanResult) IsValid() bool {
	for _, candidate := range validScanResults {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseScanResult converts raw input into a ScanResult.
func ParseScanResult(value string) (ScanResult, error) {
	for _, candidate := range validScanResults {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scan result %q", value)
}

// LocationType classifies where a scan happened.
type LocationType string

const (
	LocationTypeWarehouse LocationType = "WAREHOUSE"
	LocationTypeCustomer  LocationType = "CUSTOMER"
	LocationTypeOther     LocationType = "OTHER"
)

var validLocationTypes = []LocationType{
	LocationTypeWarehouse,
	LocationTypeCustomer,
	LocationTypeOther,
}

// String implements fmt.Stringer.
func (l LocationType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LocationType.
func (l LocationType) IsValid() bool {
	for _, candidate := range validLocationTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLocationType converts raw input into a LocationType.
func ParseLocationType(value string) (LocationType, error) {
	for _, candidate := range validLocationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid location type %q", value)
}
