package containers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/internal/activity"
	"github.com/lukasbrandt/containerflow-backend/internal/ledger"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	dbtypes "github.com/lukasbrandt/containerflow-backend/pkg/db/types"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the container inventory operations.
type Service interface {
	CreateCustomer(ctx context.Context, input CreateCustomerContainerInput) (*models.CustomerContainer, error)
	CreateWarehouse(ctx context.Context, input CreateWarehouseContainerInput) (*models.WarehouseContainer, error)
	GetCustomerByKey(ctx context.Context, key string) (*models.CustomerContainer, error)
	GetWarehouseByKey(ctx context.Context, key string) (*models.WarehouseContainer, error)
	ListCustomer(ctx context.Context, includeInactive bool) ([]models.CustomerContainer, error)
	ListWarehouse(ctx context.Context, includeInactive bool) ([]models.WarehouseContainer, error)
	UpdateCustomer(ctx context.Context, id string, updates map[string]any) (*models.CustomerContainer, error)
	UpdateWarehouse(ctx context.Context, id string, updates map[string]any) (*models.WarehouseContainer, error)
	RegenerateQR(ctx context.Context, kind enums.ContainerKind, id string, actorID uuid.UUID) (string, error)
	Reset(ctx context.Context, input ResetInput) (*ResetResult, error)
	FillHistory(ctx context.Context, containerID string) ([]models.FillHistory, error)
}

type service struct {
	repo     Repository
	ledger   ledger.Service
	activity activity.Service
	tx       txRunner
	now      func() time.Time
}

// CreateCustomerContainerInput carries the admin-supplied container fields.
type CreateCustomerContainerInput struct {
	ID                 string
	CustomerID         *uuid.UUID
	CustomerName       string
	Location           string
	Latitude           *float64
	Longitude          *float64
	MaterialType       string
	ContentDescription *string
}

// CreateWarehouseContainerInput carries the admin-supplied container fields.
type CreateWarehouseContainerInput struct {
	ID                 string
	Location           string
	WarehouseZone      *string
	MaterialType       string
	ContentDescription *string
	MaxCapacity        float64
	QuantityUnit       enums.QuantityUnit
}

// ResetInput identifies the warehouse container to empty.
type ResetInput struct {
	ContainerID string
	ActorUserID uuid.UUID
	Reason      *string
}

// ResetResult distinguishes a real reset from the already-empty no-op.
type ResetResult struct {
	Container     *models.WarehouseContainer `json:"container"`
	AlreadyEmpty  bool                       `json:"already_empty"`
	AmountRemoved float64                    `json:"amount_removed"`
}

// NewService wires the container inventory service.
func NewService(repo Repository, ledgerSvc ledger.Service, activitySvc activity.Service, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("containers repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if activitySvc == nil {
		return nil, fmt.Errorf("activity service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		ledger:   ledgerSvc,
		activity: activitySvc,
		tx:       tx,
		now:      time.Now,
	}, nil
}

// StableQR derives the printed QR identifier from the container id and kind.
// It is deterministic so reprinting labels never invalidates existing codes.
func StableQR(kind enums.ContainerKind, id string) string {
	return fmt.Sprintf("%s-%s", kind.QRPrefix(), id)
}

// regeneratedQR appends a millisecond timestamp so the new code is unique
// and the old one stops resolving.
func regeneratedQR(kind enums.ContainerKind, id string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d", kind.QRPrefix(), id, at.UnixMilli())
}

func (s *service) CreateCustomer(ctx context.Context, input CreateCustomerContainerInput) (*models.CustomerContainer, error) {
	if input.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "container id required")
	}
	if input.CustomerName == "" || input.Location == "" || input.MaterialType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name, location and material type required")
	}

	container := &models.CustomerContainer{
		ID:                 input.ID,
		CustomerID:         input.CustomerID,
		CustomerName:       input.CustomerName,
		Location:           input.Location,
		Latitude:           input.Latitude,
		Longitude:          input.Longitude,
		QRCode:             StableQR(enums.ContainerKindCustomer, input.ID),
		MaterialType:       input.MaterialType,
		ContentDescription: input.ContentDescription,
		Status:             enums.ContainerStatusAtCustomer,
		IsActive:           true,
	}
	if err := s.repo.CreateCustomer(ctx, container); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer container")
	}
	return container, nil
}

func (s *service) CreateWarehouse(ctx context.Context, input CreateWarehouseContainerInput) (*models.WarehouseContainer, error) {
	if input.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "container id required")
	}
	if input.Location == "" || input.MaterialType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location and material type required")
	}
	if input.MaxCapacity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max capacity must be positive")
	}
	unit := input.QuantityUnit
	if unit == "" {
		unit = enums.QuantityUnitKilogram
	}
	if !unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quantity unit")
	}

	container := &models.WarehouseContainer{
		ID:                 input.ID,
		Location:           input.Location,
		WarehouseZone:      input.WarehouseZone,
		QRCode:             StableQR(enums.ContainerKindWarehouse, input.ID),
		MaterialType:       input.MaterialType,
		ContentDescription: input.ContentDescription,
		MaxCapacity:        input.MaxCapacity,
		QuantityUnit:       unit,
		Status:             enums.ContainerStatusAtWarehouse,
		IsActive:           true,
	}
	if err := s.repo.CreateWarehouse(ctx, container); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create warehouse container")
	}
	return container, nil
}

// GetCustomerByKey resolves a QR code first and falls back to treating the
// key as a raw container id, so scans of either form work.
func (s *service) GetCustomerByKey(ctx context.Context, key string) (*models.CustomerContainer, error) {
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "container key required")
	}
	container, err := s.repo.FindCustomerByQR(ctx, key)
	if err == nil {
		return container, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer container")
	}
	container, err = s.repo.FindCustomerByID(ctx, key)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer container not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer container")
	}
	return container, nil
}

func (s *service) GetWarehouseByKey(ctx context.Context, key string) (*models.WarehouseContainer, error) {
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "container key required")
	}
	container, err := s.repo.FindWarehouseByQR(ctx, key)
	if err == nil {
		return container, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup warehouse container")
	}
	container, err = s.repo.FindWarehouseByID(ctx, key)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse container not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup warehouse container")
	}
	return container, nil
}

func (s *service) ListCustomer(ctx context.Context, includeInactive bool) ([]models.CustomerContainer, error) {
	containers, err := s.repo.ListCustomer(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer containers")
	}
	return containers, nil
}

func (s *service) ListWarehouse(ctx context.Context, includeInactive bool) ([]models.WarehouseContainer, error) {
	containers, err := s.repo.ListWarehouse(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouse containers")
	}
	return containers, nil
}

// Guarded fields never change through the generic patch path.
var guardedContainerFields = []string{"id", "qr_code", "current_amount", "created_at"}

func sanitizeUpdates(updates map[string]any) map[string]any {
	clean := make(map[string]any, len(updates))
	for k, v := range updates {
		clean[k] = v
	}
	for _, field := range guardedContainerFields {
		delete(clean, field)
	}
	return clean
}

func (s *service) UpdateCustomer(ctx context.Context, id string, updates map[string]any) (*models.CustomerContainer, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "container id required")
	}
	if _, err := s.GetCustomerByKey(ctx, id); err != nil {
		return nil, err
	}
	clean := sanitizeUpdates(updates)
	if len(clean) > 0 {
		if err := s.repo.UpdateCustomer(ctx, id, clean); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer container")
		}
	}
	container, err := s.repo.FindCustomerByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload customer container")
	}
	return container, nil
}

func (s *service) UpdateWarehouse(ctx context.Context, id string, updates map[string]any) (*models.WarehouseContainer, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "container id required")
	}
	if _, err := s.GetWarehouseByKey(ctx, id); err != nil {
		return nil, err
	}
	clean := sanitizeUpdates(updates)
	if len(clean) > 0 {
		if err := s.repo.UpdateWarehouse(ctx, id, clean); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update warehouse container")
		}
	}
	container, err := s.repo.FindWarehouseByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload warehouse container")
	}
	return container, nil
}

func (s *service) RegenerateQR(ctx context.Context, kind enums.ContainerKind, id string, actorID uuid.UUID) (string, error) {
	if !kind.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid container kind")
	}
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "container id required")
	}

	newCode := regeneratedQR(kind, id, s.now())

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var oldCode string
		switch kind {
		case enums.ContainerKindCustomer:
			container, err := repo.FindCustomerByID(ctx, id)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "customer container not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer container")
			}
			oldCode = container.QRCode
			if err := repo.UpdateCustomer(ctx, id, map[string]any{"qr_code": newCode}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store regenerated qr code")
			}
		case enums.ContainerKindWarehouse:
			container, err := repo.FindWarehouseByID(ctx, id)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "warehouse container not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse container")
			}
			oldCode = container.QRCode
			if err := repo.UpdateWarehouse(ctx, id, map[string]any{"qr_code": newCode}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store regenerated qr code")
			}
		}

		containerID := id
		actor := actorID
		_, err := s.activity.Append(ctx, tx, activity.AppendInput{
			Type:        enums.ActivityContainerStatusChanged,
			Action:      "qr_regenerated",
			Message:     fmt.Sprintf("QR code for container %s regenerated", id),
			UserID:      &actor,
			ContainerID: &containerID,
			Metadata: dbtypes.JSONMap{
				"old_qr_code": oldCode,
				"new_qr_code": newCode,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append qr activity")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return newCode, nil
}

func (s *service) Reset(ctx context.Context, input ResetInput) (*ResetResult, error) {
	if input.ContainerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "container id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result ResetResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		container, err := repo.FindWarehouseByID(ctx, input.ContainerID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "warehouse container not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse container")
		}

		if container.CurrentAmount == 0 {
			result = ResetResult{Container: container, AlreadyEmpty: true}
			return nil
		}

		removed := container.CurrentAmount
		at := s.now()
		if err := repo.ResetFill(ctx, input.ContainerID, at); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset container fill")
		}

		actor := input.ActorUserID
		if _, err := s.ledger.RecordDelta(ctx, tx, ledger.RecordDeltaInput{
			WarehouseContainerID: container.ID,
			AmountAdded:          -removed,
			QuantityUnit:         container.QuantityUnit,
			RecordedByUserID:     &actor,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record reset ledger entry")
		}

		containerID := container.ID
		_, err = s.activity.Append(ctx, tx, activity.AppendInput{
			Type:        enums.ActivityContainerStatusChanged,
			Action:      "container_reset",
			Message:     fmt.Sprintf("Container %s emptied (%g %s removed)", container.ID, removed, container.QuantityUnit),
			UserID:      &actor,
			ContainerID: &containerID,
			Details:     input.Reason,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append reset activity")
		}

		container.CurrentAmount = 0
		container.LastEmptied = &at
		result = ResetResult{Container: container, AmountRemoved: removed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) FillHistory(ctx context.Context, containerID string) ([]models.FillHistory, error) {
	if containerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "container id required")
	}
	if _, err := s.GetWarehouseByKey(ctx, containerID); err != nil {
		return nil, err
	}
	return s.ledger.ListByContainer(ctx, containerID)
}
