package models

import (
	"time"

	"github.com/google/uuid"
	dbtypes "github.com/lukasbrandt/containerflow-backend/pkg/db/types"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	"github.com/lukasbrandt/containerflow-backend/pkg/types"
)

// ScanEvent is the immutable record of one physical or logical scan.
type ScanEvent struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ContainerID     string              `gorm:"column:container_id;type:text;not null"`
	ContainerType   enums.ContainerKind `gorm:"column:container_type;type:text;not null"`
	TaskID          *uuid.UUID          `gorm:"column:task_id;type:uuid"`
	ScannedByUserID uuid.UUID           `gorm:"column:scanned_by_user_id;type:uuid;not null"`
	ScannedAt       time.Time           `gorm:"column:scanned_at;not null;autoCreateTime"`
	ScanContext     enums.ScanContext   `gorm:"column:scan_context;type:text;not null"`
	LocationType    enums.LocationType  `gorm:"column:location_type;type:text;not null"`
	LocationDetails *string             `gorm:"column:location_details"`
	GeoLocation     *types.GeoLocation  `gorm:"column:geo_location;type:jsonb"`
	ScanResult      enums.ScanResult    `gorm:"column:scan_result;type:text;not null;default:SUCCESS"`
	ResultMessage   *string             `gorm:"column:result_message"`
	ExtraData       dbtypes.JSONMap     `gorm:"column:extra_data;type:jsonb"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
}
