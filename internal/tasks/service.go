package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/internal/activity"
	"github.com/lukasbrandt/containerflow-backend/internal/containers"
	"github.com/lukasbrandt/containerflow-backend/internal/ledger"
	"github.com/lukasbrandt/containerflow-backend/internal/scans"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	dbtypes "github.com/lukasbrandt/containerflow-backend/pkg/db/types"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"github.com/lukasbrandt/containerflow-backend/pkg/metrics"
	"github.com/lukasbrandt/containerflow-backend/pkg/types"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor identifies the authenticated caller of a task operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// Service drives the task lifecycle. Every mutation that touches more than
// one table runs inside a single transaction together with its scan event,
// ledger entry and activity log rows.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateInput) (*models.Task, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, actor Actor, query ListQuery) ([]models.Task, error)
	Patch(ctx context.Context, actor Actor, id uuid.UUID, updates map[string]any) (*models.Task, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	Assign(ctx context.Context, actor Actor, id, assigneeID uuid.UUID) (*models.Task, error)
	Accept(ctx context.Context, actor Actor, id uuid.UUID, input ScanInput) (*LifecycleResult, error)
	Pickup(ctx context.Context, actor Actor, id uuid.UUID, input ScanInput) (*LifecycleResult, error)
	Deliver(ctx context.Context, actor Actor, id uuid.UUID, input DeliverInput) (*LifecycleResult, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*models.Task, error)
}

type service struct {
	repo       Repository
	containers containers.Repository
	ledger     ledger.Service
	activity   activity.Service
	scans      scans.Service
	tx         txRunner
	metrics    *metrics.LifecycleMetrics
	now        func() time.Time
}

// CreateInput carries the fields a new task may start with. Status is not
// among them: tasks always start OPEN.
type CreateInput struct {
	Title               *string
	Description         *string
	ContainerID         string
	DeliveryContainerID *string
	AssignedTo          *uuid.UUID
	ScheduledTime       *time.Time
	PlannedQuantity     *float64
	PlannedQuantityUnit enums.QuantityUnit
	Priority            enums.TaskPriority
	MaterialType        string
	EstimatedAmount     *float64
	PickupLocation      *types.GeoLocation
	DeliveryLocation    *types.GeoLocation
	Notes               *string
}

// ListQuery narrows the task list endpoint.
type ListQuery struct {
	Status  *enums.TaskStatus
	ShowAll bool
	Limit   int
}

// ScanInput carries the optional scan payload sent with accept and pickup.
type ScanInput struct {
	GeoLocation     *types.GeoLocation
	LocationDetails *string
	ResultMessage   *string
}

// DeliverInput carries the delivery payload. Amount overrides the planned
// quantity when the driver weighs the actual load.
type DeliverInput struct {
	DeliveryContainerID *string
	Amount              *float64
	GeoLocation         *types.GeoLocation
	LocationDetails     *string
	Notes               *string
}

// LifecycleResult reports the task after a lifecycle action. The Already*
// flags mark idempotent replays: the task was in (or past) the requested
// state and nothing was written.
type LifecycleResult struct {
	Task             *models.Task `json:"task"`
	AlreadyAccepted  bool         `json:"already_accepted,omitempty"`
	AlreadyPickedUp  bool         `json:"already_picked_up,omitempty"`
	AlreadyCompleted bool         `json:"already_completed,omitempty"`
}

// NewService wires the task lifecycle service.
func NewService(
	repo Repository,
	containerRepo containers.Repository,
	ledgerSvc ledger.Service,
	activitySvc activity.Service,
	scanSvc scans.Service,
	tx txRunner,
	lifecycleMetrics *metrics.LifecycleMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tasks repository required")
	}
	if containerRepo == nil {
		return nil, fmt.Errorf("containers repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if activitySvc == nil {
		return nil, fmt.Errorf("activity service required")
	}
	if scanSvc == nil {
		return nil, fmt.Errorf("scans service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       repo,
		containers: containerRepo,
		ledger:     ledgerSvc,
		activity:   activitySvc,
		scans:      scanSvc,
		tx:         tx,
		metrics:    lifecycleMetrics,
		now:        time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*models.Task, error) {
	if input.ContainerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "container id required")
	}
	if input.PlannedQuantity != nil && *input.PlannedQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "planned quantity must not be negative")
	}
	unit := input.PlannedQuantityUnit
	if unit == "" {
		unit = enums.QuantityUnitKilogram
	}
	if !unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quantity unit")
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.TaskPriorityNormal
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}

	source, err := s.containers.FindCustomerByID(ctx, input.ContainerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer container not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer container")
	}

	materialType := input.MaterialType
	if materialType == "" {
		materialType = source.MaterialType
	}

	// The destination is optional at creation. When given, reject plans
	// that cannot possibly succeed instead of failing at delivery time.
	if input.DeliveryContainerID != nil && *input.DeliveryContainerID != "" {
		destination, err := s.loadDestination(ctx, s.containers, *input.DeliveryContainerID)
		if err != nil {
			return nil, err
		}
		if err := checkMaterial(destination, materialType); err != nil {
			return nil, err
		}
		if err := checkPlannedCapacity(destination, input.PlannedQuantity); err != nil {
			return nil, err
		}
	}

	actorID := actor.ID
	task := &models.Task{
		ID:                  uuid.New(),
		Title:               input.Title,
		Description:         input.Description,
		ContainerID:         input.ContainerID,
		DeliveryContainerID: input.DeliveryContainerID,
		CreatedBy:           &actorID,
		AssignedTo:          input.AssignedTo,
		ScheduledTime:       input.ScheduledTime,
		PlannedQuantity:     input.PlannedQuantity,
		PlannedQuantityUnit: unit,
		Priority:            priority,
		MaterialType:        materialType,
		Status:              enums.TaskStatusOpen,
		EstimatedAmount:     input.EstimatedAmount,
		PickupLocation:      input.PickupLocation,
		DeliveryLocation:    input.DeliveryLocation,
		Notes:               input.Notes,
	}
	if input.AssignedTo != nil {
		at := s.now()
		task.Status = enums.TaskStatusAssigned
		task.AssignedAt = &at
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, task); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create task")
		}
		_, err := s.activity.Append(ctx, tx, activity.AppendInput{
			Type:        enums.ActivityTaskCreated,
			Action:      "task_created",
			Message:     fmt.Sprintf("Task created for container %s", task.ContainerID),
			UserID:      &actorID,
			TaskID:      &task.ID,
			ContainerID: &task.ContainerID,
			Metadata: dbtypes.JSONMap{
				"material_type": task.MaterialType,
				"priority":      string(task.Priority),
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log task creation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Task, error) {
	task, err := s.findTask(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// List shows drivers their own open work and admins everything. Terminal
// tasks stay hidden unless an explicit status filter or ShowAll asks for
// them.
func (s *service) List(ctx context.Context, actor Actor, query ListQuery) ([]models.Task, error) {
	if query.Status != nil && !query.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}

	filter := ListFilter{
		Status:          query.Status,
		IncludeTerminal: query.ShowAll,
		Limit:           query.Limit,
	}
	if !actor.IsAdmin() {
		assignee := actor.ID
		filter.AssignedTo = &assignee
	}

	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tasks")
	}
	return tasks, nil
}

// guardedTaskFields may never be written through Patch. Status moves only
// through the lifecycle actions.
var guardedTaskFields = []string{
	"id",
	"status",
	"created_by",
	"actual_quantity",
	"actual_quantity_unit",
	"assigned_at",
	"accepted_at",
	"picked_up_at",
	"in_transit_at",
	"delivered_at",
	"completed_at",
	"cancelled_at",
	"cancellation_reason",
	"created_at",
}

func (s *service) Patch(ctx context.Context, actor Actor, id uuid.UUID, updates map[string]any) (*models.Task, error) {
	task, err := s.findTask(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAssigneeOrAdmin(actor, task, "edit"); err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, invalidTransitionError(task.Status, "task is closed and cannot be edited")
	}

	for _, field := range guardedTaskFields {
		delete(updates, field)
	}
	if len(updates) == 0 {
		return task, nil
	}

	actorID := actor.ID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update task")
		}
		fields := make([]string, 0, len(updates))
		for field := range updates {
			fields = append(fields, field)
		}
		_, err := s.activity.Append(ctx, tx, activity.AppendInput{
			Type:    enums.ActivityManualEdit,
			Action:  "task_updated",
			Message: fmt.Sprintf("Task %s updated", id),
			UserID:  &actorID,
			TaskID:  &id,
			Metadata: dbtypes.JSONMap{
				"fields": fields,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log task update")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.findTask(ctx, s.repo, id)
}

// Delete removes a task but keeps its history: scan events, activity logs
// and fill history rows survive with their task reference nulled.
func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins may delete tasks")
	}
	task, err := s.findTask(ctx, s.repo, id)
	if err != nil {
		return err
	}

	actorID := actor.ID
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.NullifyReferences(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach task history")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete task")
		}
		// TaskID stays nil here: the row it would point at is gone.
		_, err := s.activity.Append(ctx, tx, activity.AppendInput{
			Type:        enums.ActivityTaskDeleted,
			Action:      "task_deleted",
			Message:     fmt.Sprintf("Task %s deleted", id),
			UserID:      &actorID,
			ContainerID: &task.ContainerID,
			Metadata: dbtypes.JSONMap{
				"task_id":       id.String(),
				"status":        string(task.Status),
				"material_type": task.MaterialType,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log task deletion")
		}
		return nil
	})
}

func (s *service) Assign(ctx context.Context, actor Actor, id, assigneeID uuid.UUID) (*models.Task, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may assign tasks")
	}

	var task *models.Task
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		task, err = s.findTask(ctx, repo, id)
		if err != nil {
			return err
		}
		if !CanTransition(task.Status, enums.TaskStatusAssigned) {
			return invalidTransitionError(task.Status, "task cannot be assigned")
		}

		from := task.Status
		at := s.now()
		task.Status = enums.TaskStatusAssigned
		task.AssignedTo = &assigneeID
		applyTimestamp(task, enums.TaskStatusAssigned, at)
		if err := repo.Save(ctx, task); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign task")
		}

		actorID := actor.ID
		_, err = s.activity.Append(ctx, tx, activity.AppendInput{
			Type:        enums.ActivityTaskAssigned,
			Action:      "task_assigned",
			Message:     fmt.Sprintf("Task assigned to driver %s", assigneeID),
			UserID:      &actorID,
			TaskID:      &task.ID,
			ContainerID: &task.ContainerID,
			Metadata: dbtypes.JSONMap{
				"assigned_to": assigneeID.String(),
				"from_status": string(from),
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log task assignment")
		}
		s.observeTransition(from, enums.TaskStatusAssigned)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Accept moves the task to ACCEPTED. An unassigned task is claimed by the
// accepting driver in the same step, with the assignment timestamp
// backfilled so the audit trail stays coherent.
func (s *service) Accept(ctx context.Context, actor Actor, id uuid.UUID, input ScanInput) (*LifecycleResult, error) {
	var result *LifecycleResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		task, err := s.findTask(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := s.requireAssigneeOrAdmin(actor, task, "accept"); err != nil {
			return err
		}
		if acceptedOrLater(task.Status) {
			result = &LifecycleResult{Task: task, AlreadyAccepted: true}
			return nil
		}
		if !CanTransition(task.Status, enums.TaskStatusAccepted) {
			return invalidTransitionError(task.Status, "task cannot be accepted")
		}

		source, err := s.containers.WithTx(tx).FindCustomerByID(ctx, task.ContainerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer container not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer container")
		}
		if task.DeliveryContainerID != nil && *task.DeliveryContainerID != "" {
			destination, err := s.loadDestination(ctx, s.containers.WithTx(tx), *task.DeliveryContainerID)
			if err != nil {
				return err
			}
			if err := checkMaterial(destination, task.MaterialType); err != nil {
				return err
			}
			if err := checkPlannedCapacity(destination, task.PlannedQuantity); err != nil {
				return err
			}
		}

		from := task.Status
		at := s.now()
		actorID := actor.ID
		if task.AssignedTo == nil {
			task.AssignedTo = &actorID
			if task.AssignedAt == nil {
				task.AssignedAt = &at
			}
		}
		task.Status = enums.TaskStatusAccepted
		applyTimestamp(task, enums.TaskStatusAccepted, at)
		if err := repo.Save(ctx, task); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept task")
		}

		scan, err := s.scans.Record(ctx, tx, scans.RecordInput{
			ContainerID:     source.ID,
			ContainerType:   enums.ContainerKindCustomer,
			TaskID:          &task.ID,
			ScannedByUserID: actorID,
			ScanContext:     enums.ScanContextTaskAcceptAtCustomer,
			LocationType:    enums.LocationTypeCustomer,
			LocationDetails: input.LocationDetails,
			GeoLocation:     input.GeoLocation,
			ResultMessage:   input.ResultMessage,
		})
		if err != nil {
			return err
		}
		_, err = s.activity.Append(ctx, tx, activity.AppendInput{
			Type:        enums.ActivityTaskAccepted,
			Action:      "task_accepted",
			Message:     fmt.Sprintf("Task accepted at container %s", source.ID),
			UserID:      &actorID,
			TaskID:      &task.ID,
			ContainerID: &source.ID,
			ScanEventID: &scan.ID,
			Metadata: dbtypes.JSONMap{
				"from_status": string(from),
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log task acceptance")
		}

		s.observeTransition(from, enums.TaskStatusAccepted)
		result = &LifecycleResult{Task: task}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Pickup moves the task to PICKED_UP. It requires the task to have been
// accepted first: the scan at the customer site is what proves the driver
// stood in front of the container.
func (s *service) Pickup(ctx context.Context, actor Actor, id uuid.UUID, input ScanInput) (*LifecycleResult, error) {
	var result *LifecycleResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		task, err := s.findTask(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := s.requireAssigneeOrAdmin(actor, task, "pick up"); err != nil {
			return err
		}
		if pickedUpOrLater(task.Status) {
			result = &LifecycleResult{Task: task, AlreadyPickedUp: true}
			return nil
		}
		if task.Status != enums.TaskStatusAccepted {
			return invalidTransitionError(task.Status, "task must be accepted before pickup")
		}

		from := task.Status
		at := s.now()
		actorID := actor.ID
		task.Status = enums.TaskStatusPickedUp
		applyTimestamp(task, enums.TaskStatusPickedUp, at)
		if err := repo.Save(ctx, task); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pick up task")
		}

		scan, err := s.scans.Record(ctx, tx, scans.RecordInput{
			ContainerID:     task.ContainerID,
			ContainerType:   enums.ContainerKindCustomer,
			TaskID:          &task.ID,
			ScannedByUserID: actorID,
			ScanContext:     enums.ScanContextTaskPickup,
			LocationType:    enums.LocationTypeCustomer,
			LocationDetails: input.LocationDetails,
			GeoLocation:     input.GeoLocation,
			ResultMessage:   input.ResultMessage,
		})
		if err != nil {
			return err
		}
		_, err = s.activity.Append(ctx, tx, activity.AppendInput{
			Type:        enums.ActivityTaskPickedUp,
			Action:      "task_picked_up",
			Message:     fmt.Sprintf("Container %s picked up", task.ContainerID),
			UserID:      &actorID,
			TaskID:      &task.ID,
			ContainerID: &task.ContainerID,
			ScanEventID: &scan.ID,
			Metadata: dbtypes.JSONMap{
				"from_status": string(from),
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log task pickup")
		}

		s.observeTransition(from, enums.TaskStatusPickedUp)
		result = &LifecycleResult{Task: task}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Deliver empties the load into the warehouse container and closes the
// task. DELIVERED and COMPLETED are committed together: the container
// increment, the ledger entry, the scan event, the customer container
// reset and the activity rows all ride the same transaction, so either the
// full delivery happened or none of it did.
func (s *service) Deliver(ctx context.Context, actor Actor, id uuid.UUID, input DeliverInput) (*LifecycleResult, error) {
	if input.Amount != nil && *input.Amount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivered amount must not be negative")
	}

	var result *LifecycleResult
	var deliveredUnit enums.QuantityUnit
	var deliveredAmount float64
	var from enums.TaskStatus

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		containerRepo := s.containers.WithTx(tx)

		task, err := s.findTask(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := s.requireAssigneeOrAdmin(actor, task, "deliver"); err != nil {
			return err
		}
		if task.Status == enums.TaskStatusCompleted {
			result = &LifecycleResult{Task: task, AlreadyCompleted: true}
			return nil
		}
		if !CanTransition(task.Status, enums.TaskStatusDelivered) {
			return invalidTransitionError(task.Status, "task cannot be delivered")
		}

		destinationID := task.DeliveryContainerID
		if input.DeliveryContainerID != nil && *input.DeliveryContainerID != "" {
			destinationID = input.DeliveryContainerID
		}
		if destinationID == nil || *destinationID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery container required")
		}
		destination, err := s.loadDestination(ctx, containerRepo, *destinationID)
		if err != nil {
			return err
		}
		if err := checkMaterial(destination, task.MaterialType); err != nil {
			return err
		}

		amount := resolveDeliveredAmount(input.Amount, task)
		if amount > 0 {
			ok, err := containerRepo.IncrementFill(ctx, destination.ID, amount)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply container fill")
			}
			if !ok {
				s.metrics.IncCapacityRejection(destination.ID)
				return pkgerrors.New(pkgerrors.CodeCapacityExceeded, "delivery exceeds container capacity").
					WithDetails(map[string]any{
						"container_id":       destination.ID,
						"remaining_capacity": destination.RemainingCapacity(),
						"requested_amount":   amount,
						"unit":               string(destination.QuantityUnit),
					})
			}
		}

		from = task.Status
		at := s.now()
		actorID := actor.ID

		task.Status = enums.TaskStatusCompleted
		task.DeliveryContainerID = &destination.ID
		task.ActualQuantity = &amount
		task.ActualQuantityUnit = destination.QuantityUnit
		if input.Notes != nil {
			task.Notes = input.Notes
		}
		applyTimestamp(task, enums.TaskStatusDelivered, at)
		applyTimestamp(task, enums.TaskStatusCompleted, at)
		if err := repo.Save(ctx, task); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete task")
		}

		if amount != 0 {
			_, err = s.ledger.RecordDelta(ctx, tx, ledger.RecordDeltaInput{
				WarehouseContainerID: destination.ID,
				AmountAdded:          amount,
				QuantityUnit:         destination.QuantityUnit,
				TaskID:               &task.ID,
				RecordedByUserID:     &actorID,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record fill history")
			}
		}
		if err := containerRepo.MarkCustomerEmptied(ctx, task.ContainerID, at); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark customer container emptied")
		}

		scan, err := s.scans.Record(ctx, tx, scans.RecordInput{
			ContainerID:     destination.ID,
			ContainerType:   enums.ContainerKindWarehouse,
			TaskID:          &task.ID,
			ScannedByUserID: actorID,
			ScanContext:     enums.ScanContextTaskCompleteAtWarehouse,
			LocationType:    enums.LocationTypeWarehouse,
			LocationDetails: input.LocationDetails,
			GeoLocation:     input.GeoLocation,
		})
		if err != nil {
			return err
		}

		_, err = s.activity.Append(ctx, tx, activity.AppendInput{
			Type:        enums.ActivityTaskDelivered,
			Action:      "task_delivered",
			Message:     fmt.Sprintf("Delivered %.2f %s into container %s", amount, destination.QuantityUnit, destination.ID),
			UserID:      &actorID,
			TaskID:      &task.ID,
			ContainerID: &destination.ID,
			ScanEventID: &scan.ID,
			Metadata: dbtypes.JSONMap{
				"amount":      amount,
				"unit":        string(destination.QuantityUnit),
				"from_status": string(from),
				"source":      task.ContainerID,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log task delivery")
		}
		_, err = s.activity.Append(ctx, tx, activity.AppendInput{
			Type:        enums.ActivityTaskCompleted,
			Action:      "task_completed",
			Message:     fmt.Sprintf("Task %s completed", task.ID),
			UserID:      &actorID,
			TaskID:      &task.ID,
			ContainerID: &destination.ID,
			ScanEventID: &scan.ID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log task completion")
		}

		deliveredAmount = amount
		deliveredUnit = destination.QuantityUnit
		result = &LifecycleResult{Task: task}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result != nil && !result.AlreadyCompleted {
		s.observeTransition(from, enums.TaskStatusDelivered)
		s.observeTransition(enums.TaskStatusDelivered, enums.TaskStatusCompleted)
		s.metrics.AddDeliveredAmount(string(deliveredUnit), deliveredAmount)
	}
	return result, nil
}

// Cancel closes the task from any active state. Any authenticated actor
// may cancel, and the reason is optional; an empty reason is stored as
// absent rather than as an empty string.
func (s *service) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*models.Task, error) {
	reason = strings.TrimSpace(reason)

	var task *models.Task
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		task, err = s.findTask(ctx, repo, id)
		if err != nil {
			return err
		}
		if !CanTransition(task.Status, enums.TaskStatusCancelled) {
			return invalidTransitionError(task.Status, "task is already closed")
		}

		from := task.Status
		at := s.now()
		actorID := actor.ID
		task.Status = enums.TaskStatusCancelled
		if reason != "" {
			task.CancellationReason = &reason
		}
		applyTimestamp(task, enums.TaskStatusCancelled, at)
		if err := repo.Save(ctx, task); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel task")
		}

		message := "Task cancelled"
		metadata := dbtypes.JSONMap{"from_status": string(from)}
		if reason != "" {
			message = fmt.Sprintf("Task cancelled: %s", reason)
			metadata["reason"] = reason
		}
		_, err = s.activity.Append(ctx, tx, activity.AppendInput{
			Type:        enums.ActivityTaskCancelled,
			Action:      "task_cancelled",
			Message:     message,
			UserID:      &actorID,
			TaskID:      &task.ID,
			ContainerID: &task.ContainerID,
			Metadata:    metadata,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log task cancellation")
		}
		s.observeTransition(from, enums.TaskStatusCancelled)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *service) findTask(ctx context.Context, repo Repository, id uuid.UUID) (*models.Task, error) {
	task, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
	}
	return task, nil
}

// requireAssigneeOrAdmin gates driver actions. The current assignee rides
// the error details so the client can show who holds the task.
func (s *service) requireAssigneeOrAdmin(actor Actor, task *models.Task, action string) error {
	if actor.IsAdmin() {
		return nil
	}
	if task.AssignedTo == nil || *task.AssignedTo == actor.ID {
		return nil
	}
	details := map[string]any{
		"assigned_to": task.AssignedTo.String(),
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("task is assigned to another driver, cannot %s", action)).
		WithDetails(details)
}

func (s *service) loadDestination(ctx context.Context, repo containers.Repository, id string) (*models.WarehouseContainer, error) {
	destination, err := repo.FindWarehouseByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse container not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse container")
	}
	return destination, nil
}

func (s *service) observeTransition(from, to enums.TaskStatus) {
	s.metrics.ObserveTransition(string(from), string(to))
}

// checkMaterial compares material types strictly; values are stored
// verbatim and never normalized.
func checkMaterial(destination *models.WarehouseContainer, materialType string) error {
	if materialType == "" || destination.MaterialType == materialType {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeMaterialMismatch, "container holds a different material").
		WithDetails(map[string]any{
			"container_id":       destination.ID,
			"container_material": destination.MaterialType,
			"task_material":      materialType,
		})
}

// checkPlannedCapacity is the advisory pre-check at create and accept
// time. A missing or zero plan passes: the authoritative check is the
// conditional increment at delivery.
func checkPlannedCapacity(destination *models.WarehouseContainer, planned *float64) error {
	if planned == nil || *planned <= 0 {
		return nil
	}
	if *planned <= destination.RemainingCapacity() {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeCapacityExceeded, "planned quantity exceeds container capacity").
		WithDetails(map[string]any{
			"container_id":       destination.ID,
			"remaining_capacity": destination.RemainingCapacity(),
			"requested_amount":   *planned,
			"unit":               string(destination.QuantityUnit),
		})
}

// resolveDeliveredAmount picks the recorded amount, falling back through
// the planned and estimated figures. Zero means an unweighed delivery.
func resolveDeliveredAmount(amount *float64, task *models.Task) float64 {
	if amount != nil {
		return *amount
	}
	if task.PlannedQuantity != nil {
		return *task.PlannedQuantity
	}
	if task.EstimatedAmount != nil {
		return *task.EstimatedAmount
	}
	return 0
}

func acceptedOrLater(status enums.TaskStatus) bool {
	switch status {
	case enums.TaskStatusAccepted,
		enums.TaskStatusPickedUp,
		enums.TaskStatusInTransit,
		enums.TaskStatusDelivered,
		enums.TaskStatusCompleted:
		return true
	}
	return false
}

func pickedUpOrLater(status enums.TaskStatus) bool {
	switch status {
	case enums.TaskStatusPickedUp,
		enums.TaskStatusInTransit,
		enums.TaskStatusDelivered,
		enums.TaskStatusCompleted:
		return true
	}
	return false
}
