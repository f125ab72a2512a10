package models

import (
	"time"

	"github.com/google/uuid"
	dbtypes "github.com/lukasbrandt/containerflow-backend/pkg/db/types"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
)

// ActivityLog is a human-readable audit record. Append-only.
type ActivityLog struct {
	ID          uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Type        enums.ActivityLogType `gorm:"column:type;type:text;not null"`
	Action      string                `gorm:"column:action;not null"`
	Message     string                `gorm:"column:message;not null"`
	UserID      *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	TaskID      *uuid.UUID            `gorm:"column:task_id;type:uuid"`
	ContainerID *string               `gorm:"column:container_id;type:text"`
	ScanEventID *uuid.UUID            `gorm:"column:scan_event_id;type:uuid"`
	Details     *string               `gorm:"column:details"`
	Metadata    dbtypes.JSONMap       `gorm:"column:metadata;type:jsonb"`
	Timestamp   time.Time             `gorm:"column:timestamp;not null;autoCreateTime"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
