package tasks

import (
	"context"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	"gorm.io/gorm"
)

// ListFilter narrows task list queries.
type ListFilter struct {
	AssignedTo      *uuid.UUID
	Status          *enums.TaskStatus
	Statuses        []enums.TaskStatus
	MaterialType    *string
	CreatedAfter    *string
	IncludeTerminal bool
	Limit           int
}

// Repository manages persistence for tasks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, filter ListFilter) ([]models.Task, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Save(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	NullifyReferences(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a task repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{})
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.MaterialType != nil {
		query = query.Where("material_type = ?", *filter.MaterialType)
	}
	if !filter.IncludeTerminal && filter.Status == nil && len(filter.Statuses) == 0 {
		query = query.Where("status NOT IN ?", []enums.TaskStatus{
			enums.TaskStatusCompleted,
			enums.TaskStatusCancelled,
		})
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var tasks []models.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Save(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id).Error
}

// NullifyReferences detaches history rows before a hard delete so scan
// events, activity logs and fill history survive the task.
func (r *repository) NullifyReferences(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.ScanEvent{}).
		Where("task_id = ?", id).
		UpdateColumn("task_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&models.ActivityLog{}).
		Where("task_id = ?", id).
		UpdateColumn("task_id", nil).Error; err != nil {
		return err
	}
	return db.Model(&models.FillHistory{}).
		Where("task_id = ?", id).
		UpdateColumn("task_id", nil).Error
}
