package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service covers customer master data. Deletion is a soft deactivation so
// historic tasks and containers keep resolving.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, includeInactive bool) ([]models.Customer, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Customer, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Containers(ctx context.Context, id uuid.UUID) ([]models.CustomerContainer, error)
}

type service struct {
	repo *Repository
}

// CreateInput carries the fields for a new customer.
type CreateInput struct {
	Name         string
	Address      *string
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
	Notes        *string
}

// NewService wires the customer service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &service{repo: repo}, nil
}

// guardedCustomerFields may never be written through Update.
var guardedCustomerFields = []string{"id", "created_at"}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Customer, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}

	customer := &models.Customer{
		ID:           uuid.New(),
		Name:         input.Name,
		Address:      input.Address,
		ContactName:  input.ContactName,
		ContactPhone: input.ContactPhone,
		ContactEmail: input.ContactEmail,
		Notes:        input.Notes,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return customer, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]models.Customer, error) {
	customers, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return customers, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Customer, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	for _, field := range guardedCustomerFields {
		delete(updates, field)
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
		}
	}
	return s.Get(ctx, id)
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate customer")
	}
	return nil
}

func (s *service) Containers(ctx context.Context, id uuid.UUID) ([]models.CustomerContainer, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	containers, err := s.repo.ListContainers(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer containers")
	}
	return containers, nil
}
