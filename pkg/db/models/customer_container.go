package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
)

// CustomerContainer is a container placed at a customer site. IDs are
// human-assigned (printed on the container), not generated.
type CustomerContainer struct {
	ID                 string                `gorm:"type:text;primaryKey"`
	CustomerID         *uuid.UUID            `gorm:"column:customer_id;type:uuid"`
	CustomerName       string                `gorm:"column:customer_name;not null"`
	Location           string                `gorm:"column:location;not null"`
	Latitude           *float64              `gorm:"column:latitude"`
	Longitude          *float64              `gorm:"column:longitude"`
	QRCode             string                `gorm:"column:qr_code;not null;uniqueIndex"`
	MaterialType       string                `gorm:"column:material_type;not null"`
	ContentDescription *string               `gorm:"column:content_description"`
	Status             enums.ContainerStatus `gorm:"column:status;type:text;not null;default:AT_CUSTOMER"`
	LastEmptied        *time.Time            `gorm:"column:last_emptied"`
	IsActive           bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
