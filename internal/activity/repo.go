package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/pagination"
	"gorm.io/gorm"
)

// ListFilter narrows activity log queries.
type ListFilter struct {
	TaskID      *uuid.UUID
	UserID      *uuid.UUID
	ContainerID *string
	Type        *string
	Since       *time.Time
	Until       *time.Time
	Cursor      *pagination.Cursor
	Limit       int
}

// Repository manages persistence for activity log entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an activity log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})
	if filter.TaskID != nil {
		query = query.Where("task_id = ?", *filter.TaskID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ContainerID != nil {
		query = query.Where("container_id = ?", *filter.ContainerID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Since != nil {
		query = query.Where("timestamp >= ?", *filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("timestamp <= ?", *filter.Until)
	}
	if filter.Cursor != nil {
		query = query.Where("(timestamp, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []models.ActivityLog
	if err := query.Order("timestamp DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
