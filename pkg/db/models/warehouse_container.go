package models

import (
	"time"

	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
)

// WarehouseContainer is a collection container at the warehouse. The
// capacity invariant 0 <= current_amount <= max_capacity is enforced by the
// delivery path, never bypassed by direct writes.
type WarehouseContainer struct {
	ID                 string                `gorm:"type:text;primaryKey"`
	Location           string                `gorm:"column:location;not null"`
	WarehouseZone      *string               `gorm:"column:warehouse_zone"`
	QRCode             string                `gorm:"column:qr_code;not null;uniqueIndex"`
	MaterialType       string                `gorm:"column:material_type;not null"`
	ContentDescription *string               `gorm:"column:content_description"`
	CurrentAmount      float64               `gorm:"column:current_amount;not null;default:0"`
	MaxCapacity        float64               `gorm:"column:max_capacity;not null"`
	QuantityUnit       enums.QuantityUnit    `gorm:"column:quantity_unit;type:text;not null;default:kg"`
	Status             enums.ContainerStatus `gorm:"column:status;type:text;not null;default:AT_WAREHOUSE"`
	LastEmptied        *time.Time            `gorm:"column:last_emptied"`
	IsActive           bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// RemainingCapacity reports how much more material the container can hold.
func (w WarehouseContainer) RemainingCapacity() float64 {
	remaining := w.MaxCapacity - w.CurrentAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}
