package enums

import (
	"fmt"
	"strings"
)

// UserRole distinguishes dispatchers from drivers.
type UserRole string

const (
	UserRoleAdmin  UserRole = "ADMIN"
	UserRoleDriver UserRole = "DRIVER"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleDriver,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole. Roles arrive in mixed
// case from legacy clients and are normalized here.
func ParseUserRole(value string) (UserRole, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validUserRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
