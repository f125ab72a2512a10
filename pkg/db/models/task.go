package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	"github.com/lukasbrandt/containerflow-backend/pkg/types"
)

// Task is a collection order: pick up a customer container's contents and
// deliver them into a warehouse container. Status is mutated exclusively
// through the lifecycle transitions; each status has one timestamp column.
type Task struct {
	ID                  uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title               *string            `gorm:"column:title"`
	Description         *string            `gorm:"column:description"`
	ContainerID         string             `gorm:"column:container_id;type:text;not null"`
	DeliveryContainerID *string            `gorm:"column:delivery_container_id;type:text"`
	CreatedBy           *uuid.UUID         `gorm:"column:created_by;type:uuid"`
	AssignedTo          *uuid.UUID         `gorm:"column:assigned_to;type:uuid"`
	ScheduledTime       *time.Time         `gorm:"column:scheduled_time"`
	PlannedQuantity     *float64           `gorm:"column:planned_quantity"`
	PlannedQuantityUnit enums.QuantityUnit `gorm:"column:planned_quantity_unit;type:text;default:kg"`
	Priority            enums.TaskPriority `gorm:"column:priority;type:text;not null;default:normal"`
	MaterialType        string             `gorm:"column:material_type;not null"`
	Status              enums.TaskStatus   `gorm:"column:status;type:text;not null;default:OPEN"`
	AssignedAt          *time.Time         `gorm:"column:assigned_at"`
	AcceptedAt          *time.Time         `gorm:"column:accepted_at"`
	PickedUpAt          *time.Time         `gorm:"column:picked_up_at"`
	InTransitAt         *time.Time         `gorm:"column:in_transit_at"`
	DeliveredAt         *time.Time         `gorm:"column:delivered_at"`
	CompletedAt         *time.Time         `gorm:"column:completed_at"`
	CancelledAt         *time.Time         `gorm:"column:cancelled_at"`
	PickupLocation      *types.GeoLocation `gorm:"column:pickup_location;type:jsonb"`
	DeliveryLocation    *types.GeoLocation `gorm:"column:delivery_location;type:jsonb"`
	ActualQuantity      *float64           `gorm:"column:actual_quantity"`
	ActualQuantityUnit  enums.QuantityUnit `gorm:"column:actual_quantity_unit;type:text;default:kg"`
	Notes               *string            `gorm:"column:notes"`
	CancellationReason  *string            `gorm:"column:cancellation_reason"`
	EstimatedAmount     *float64           `gorm:"column:estimated_amount"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
