package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	"gorm.io/gorm"
)

// Service records signed fill deltas for warehouse containers.
type Service interface {
	RecordDelta(ctx context.Context, tx *gorm.DB, input RecordDeltaInput) (*models.FillHistory, error)
	ListByContainer(ctx context.Context, containerID string) ([]models.FillHistory, error)
}

type service struct {
	repo Repository
}

// RecordDeltaInput captures the immutable data a fill history entry requires.
type RecordDeltaInput struct {
	WarehouseContainerID string             `json:"warehouse_container_id"`
	AmountAdded          float64            `json:"amount_added"`
	QuantityUnit         enums.QuantityUnit `json:"quantity_unit"`
	TaskID               *uuid.UUID         `json:"task_id"`
	RecordedByUserID     *uuid.UUID         `json:"recorded_by_user_id"`
}

// NewService wires a fill ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordDelta(ctx context.Context, tx *gorm.DB, input RecordDeltaInput) (*models.FillHistory, error) {
	if input.WarehouseContainerID == "" {
		return nil, fmt.Errorf("warehouse container id is required")
	}
	if input.AmountAdded == 0 {
		return nil, fmt.Errorf("amount delta must be non-zero")
	}
	if !input.QuantityUnit.IsValid() {
		return nil, fmt.Errorf("invalid quantity unit %q", input.QuantityUnit)
	}

	entry := &models.FillHistory{
		WarehouseContainerID: input.WarehouseContainerID,
		AmountAdded:          input.AmountAdded,
		QuantityUnit:         input.QuantityUnit,
		TaskID:               input.TaskID,
		RecordedByUserID:     input.RecordedByUserID,
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListByContainer(ctx context.Context, containerID string) ([]models.FillHistory, error) {
	if containerID == "" {
		return nil, fmt.Errorf("warehouse container id is required")
	}
	return s.repo.ListByContainerID(ctx, containerID)
}
