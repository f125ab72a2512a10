package customers

import (
	"context"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for customers.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a customers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *Repository) List(ctx context.Context, includeInactive bool) ([]models.Customer, error) {
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var customers []models.Customer
	if err := query.Order("name ASC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListContainers returns the customer-site containers owned by a customer.
func (r *Repository) ListContainers(ctx context.Context, customerID uuid.UUID) ([]models.CustomerContainer, error) {
	var containers []models.CustomerContainer
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id ASC").
		Find(&containers).Error
	if err != nil {
		return nil, err
	}
	return containers, nil
}
