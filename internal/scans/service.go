package scans

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/internal/activity"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	dbtypes "github.com/lukasbrandt/containerflow-backend/pkg/db/types"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"github.com/lukasbrandt/containerflow-backend/pkg/types"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service records and reads scan events.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.ScanEvent, error)
	RecordStandalone(ctx context.Context, input RecordInput) (*models.ScanEvent, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ScanEvent, error)
	List(ctx context.Context, filter ListFilter) ([]models.ScanEvent, error)
}

type service struct {
	repo     Repository
	activity activity.Service
	tx       txRunner
}

// RecordInput captures one scan.
type RecordInput struct {
	ContainerID     string
	ContainerType   enums.ContainerKind
	TaskID          *uuid.UUID
	ScannedByUserID uuid.UUID
	ScanContext     enums.ScanContext
	LocationType    enums.LocationType
	LocationDetails *string
	GeoLocation     *types.GeoLocation
	ScanResult      enums.ScanResult
	ResultMessage   *string
	ExtraData       dbtypes.JSONMap
}

// NewService wires a scan event service.
func NewService(repo Repository, activitySvc activity.Service, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("scans repository required")
	}
	if activitySvc == nil {
		return nil, fmt.Errorf("activity service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, activity: activitySvc, tx: tx}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.ScanEvent, error) {
	if input.ContainerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "container id required")
	}
	if !input.ContainerType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid container type")
	}
	if input.ScannedByUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.ScanContext.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid scan context")
	}
	if !input.LocationType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid location type")
	}
	if input.ScanResult == "" {
		input.ScanResult = enums.ScanResultSuccess
	}
	if !input.ScanResult.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid scan result")
	}

	event := &models.ScanEvent{
		ContainerID:     input.ContainerID,
		ContainerType:   input.ContainerType,
		TaskID:          input.TaskID,
		ScannedByUserID: input.ScannedByUserID,
		ScanContext:     input.ScanContext,
		LocationType:    input.LocationType,
		LocationDetails: input.LocationDetails,
		GeoLocation:     input.GeoLocation,
		ScanResult:      input.ScanResult,
		ResultMessage:   input.ResultMessage,
		ExtraData:       input.ExtraData,
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if err := repo.Create(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record scan event")
	}
	return event, nil
}

// RecordStandalone records an info scan outside a task lifecycle operation,
// appending its own audit entry in the same transaction.
func (s *service) RecordStandalone(ctx context.Context, input RecordInput) (*models.ScanEvent, error) {
	var event *models.ScanEvent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		recorded, err := s.Record(ctx, tx, input)
		if err != nil {
			return err
		}
		event = recorded

		logType := enums.ActivityContainerScannedAtWarehouse
		if input.LocationType == enums.LocationTypeCustomer {
			logType = enums.ActivityContainerScannedAtCustomer
		}
		containerID := input.ContainerID
		userID := input.ScannedByUserID
		_, err = s.activity.Append(ctx, tx, activity.AppendInput{
			Type:        logType,
			Action:      "container_scanned",
			Message:     fmt.Sprintf("Container %s scanned (%s)", input.ContainerID, input.ScanContext),
			UserID:      &userID,
			TaskID:      input.TaskID,
			ContainerID: &containerID,
			ScanEventID: &event.ID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append scan activity")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ScanEvent, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scan event id required")
	}
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scan event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scan event")
	}
	return event, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.ScanEvent, error) {
	events, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list scan events")
	}
	return events, nil
}
