package containers

import (
	"context"
	"time"

	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages persistence for both container kinds.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCustomer(ctx context.Context, container *models.CustomerContainer) error
	FindCustomerByID(ctx context.Context, id string) (*models.CustomerContainer, error)
	FindCustomerByQR(ctx context.Context, qrCode string) (*models.CustomerContainer, error)
	ListCustomer(ctx context.Context, includeInactive bool) ([]models.CustomerContainer, error)
	UpdateCustomer(ctx context.Context, id string, updates map[string]any) error

	CreateWarehouse(ctx context.Context, container *models.WarehouseContainer) error
	FindWarehouseByID(ctx context.Context, id string) (*models.WarehouseContainer, error)
	FindWarehouseByQR(ctx context.Context, qrCode string) (*models.WarehouseContainer, error)
	ListWarehouse(ctx context.Context, includeInactive bool) ([]models.WarehouseContainer, error)
	UpdateWarehouse(ctx context.Context, id string, updates map[string]any) error

	IncrementFill(ctx context.Context, id string, amount float64) (bool, error)
	ResetFill(ctx context.Context, id string, at time.Time) error
	MarkCustomerEmptied(ctx context.Context, id string, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a container repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCustomer(ctx context.Context, container *models.CustomerContainer) error {
	return r.db.WithContext(ctx).Create(container).Error
}

func (r *repository) FindCustomerByID(ctx context.Context, id string) (*models.CustomerContainer, error) {
	var container models.CustomerContainer
	if err := r.db.WithContext(ctx).First(&container, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &container, nil
}

func (r *repository) FindCustomerByQR(ctx context.Context, qrCode string) (*models.CustomerContainer, error) {
	var container models.CustomerContainer
	if err := r.db.WithContext(ctx).First(&container, "qr_code = ?", qrCode).Error; err != nil {
		return nil, err
	}
	return &container, nil
}

func (r *repository) ListCustomer(ctx context.Context, includeInactive bool) ([]models.CustomerContainer, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerContainer{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var containers []models.CustomerContainer
	if err := query.Order("id ASC").Find(&containers).Error; err != nil {
		return nil, err
	}
	return containers, nil
}

func (r *repository) UpdateCustomer(ctx context.Context, id string, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomerContainer{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateWarehouse(ctx context.Context, container *models.WarehouseContainer) error {
	return r.db.WithContext(ctx).Create(container).Error
}

func (r *repository) FindWarehouseByID(ctx context.Context, id string) (*models.WarehouseContainer, error) {
	var container models.WarehouseContainer
	if err := r.db.WithContext(ctx).First(&container, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &container, nil
}

func (r *repository) FindWarehouseByQR(ctx context.Context, qrCode string) (*models.WarehouseContainer, error) {
	var container models.WarehouseContainer
	if err := r.db.WithContext(ctx).First(&container, "qr_code = ?", qrCode).Error; err != nil {
		return nil, err
	}
	return &container, nil
}

func (r *repository) ListWarehouse(ctx context.Context, includeInactive bool) ([]models.WarehouseContainer, error) {
	query := r.db.WithContext(ctx).Model(&models.WarehouseContainer{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var containers []models.WarehouseContainer
	if err := query.Order("id ASC").Find(&containers).Error; err != nil {
		return nil, err
	}
	return containers, nil
}

func (r *repository) UpdateWarehouse(ctx context.Context, id string, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.WarehouseContainer{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// IncrementFill applies the capacity-checked increment. The condition rides
// in the statement itself so concurrent deliveries cannot overfill; zero
// affected rows means the capacity check failed.
func (r *repository) IncrementFill(ctx context.Context, id string, amount float64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE warehouse_containers
		SET current_amount = current_amount + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND current_amount + ? <= max_capacity
	`, amount, id, amount)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ResetFill(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.WarehouseContainer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_amount": 0,
			"last_emptied":   at,
		}).Error
}

func (r *repository) MarkCustomerEmptied(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomerContainer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_emptied": at,
			"status":       enums.ContainerStatusAtCustomer,
		}).Error
}
