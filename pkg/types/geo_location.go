package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// GeoLocation captures the device coordinates attached to a scan or task
// action, persisted as jsonb.
type GeoLocation struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// Value serializes the location for a jsonb column.
func (g GeoLocation) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Scan accepts the jsonb payload returned by the database.
func (g *GeoLocation) Scan(value any) error {
	if value == nil {
		*g = GeoLocation{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, g)
	case string:
		return json.Unmarshal([]byte(v), g)
	default:
		return fmt.Errorf("geo location: unsupported scan type %T", value)
	}
}
