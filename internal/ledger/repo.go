package ledger

import (
	"context"

	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for fill history entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.FillHistory) error
	ListByContainerID(ctx context.Context, containerID string) ([]models.FillHistory, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a fill history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.FillHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByContainerID(ctx context.Context, containerID string) ([]models.FillHistory, error) {
	var entries []models.FillHistory
	if err := r.db.WithContext(ctx).
		Where("warehouse_container_id = ?", containerID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
