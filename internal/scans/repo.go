package scans

import (
	"context"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"gorm.io/gorm"
)

// ListFilter narrows scan event queries.
type ListFilter struct {
	ContainerID *string
	TaskID      *uuid.UUID
	UserID      *uuid.UUID
	Limit       int
}

// Repository manages persistence for scan events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.ScanEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ScanEvent, error)
	List(ctx context.Context, filter ListFilter) ([]models.ScanEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a scan event repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.ScanEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ScanEvent, error) {
	var event models.ScanEvent
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.ScanEvent, error) {
	query := r.db.WithContext(ctx).Model(&models.ScanEvent{})
	if filter.ContainerID != nil {
		query = query.Where("container_id = ?", *filter.ContainerID)
	}
	if filter.TaskID != nil {
		query = query.Where("task_id = ?", *filter.TaskID)
	}
	if filter.UserID != nil {
		query = query.Where("scanned_by_user_id = ?", *filter.UserID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var events []models.ScanEvent
	if err := query.Order("scanned_at DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
