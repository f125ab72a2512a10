package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
)

// FillHistory records one signed amount delta applied to a warehouse
// container: positive for a delivery, negative for a reset. Append-only.
type FillHistory struct {
	ID                   uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	WarehouseContainerID string             `gorm:"column:warehouse_container_id;type:text;not null"`
	AmountAdded          float64            `gorm:"column:amount_added;not null"`
	QuantityUnit         enums.QuantityUnit `gorm:"column:quantity_unit;type:text;not null;default:kg"`
	TaskID               *uuid.UUID         `gorm:"column:task_id;type:uuid"`
	RecordedByUserID     *uuid.UUID         `gorm:"column:recorded_by_user_id;type:uuid"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the legacy table name.
func (FillHistory) TableName() string {
	return "fill_history"
}
