package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer owns one or more customer-site containers.
type Customer struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Address      *string   `gorm:"column:address"`
	ContactName  *string   `gorm:"column:contact_name"`
	ContactPhone *string   `gorm:"column:contact_phone"`
	ContactEmail *string   `gorm:"column:contact_email"`
	Notes        *string   `gorm:"column:notes"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
