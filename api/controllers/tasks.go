package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/api/responses"
	"github.com/lukasbrandt/containerflow-backend/api/validators"
	"github.com/lukasbrandt/containerflow-backend/internal/tasks"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"github.com/lukasbrandt/containerflow-backend/pkg/logger"
	"github.com/lukasbrandt/containerflow-backend/pkg/types"
)

type createTaskRequest struct {
	Title               *string            `json:"title,omitempty"`
	Description         *string            `json:"description,omitempty"`
	ContainerID         string             `json:"container_id" validate:"required"`
	DeliveryContainerID *string            `json:"delivery_container_id,omitempty"`
	AssignedTo          *uuid.UUID         `json:"assigned_to,omitempty"`
	ScheduledTime       *time.Time         `json:"scheduled_time,omitempty"`
	PlannedQuantity     *float64           `json:"planned_quantity,omitempty" validate:"omitempty,gte=0"`
	PlannedQuantityUnit string             `json:"planned_quantity_unit,omitempty"`
	Priority            string             `json:"priority,omitempty"`
	MaterialType        string             `json:"material_type,omitempty"`
	EstimatedAmount     *float64           `json:"estimated_amount,omitempty" validate:"omitempty,gte=0"`
	PickupLocation      *types.GeoLocation `json:"pickup_location,omitempty"`
	DeliveryLocation    *types.GeoLocation `json:"delivery_location,omitempty"`
	Notes               *string            `json:"notes,omitempty"`
}

type assignTaskRequest struct {
	AssignedTo uuid.UUID `json:"assigned_to" validate:"required"`
}

type taskScanRequest struct {
	GeoLocation     *types.GeoLocation `json:"geo_location,omitempty"`
	LocationDetails *string            `json:"location_details,omitempty"`
	ResultMessage   *string            `json:"result_message,omitempty"`
}

type deliverTaskRequest struct {
	DeliveryContainerID *string            `json:"delivery_container_id,omitempty"`
	Amount              *float64           `json:"amount,omitempty" validate:"omitempty,gte=0"`
	GeoLocation         *types.GeoLocation `json:"geo_location,omitempty"`
	LocationDetails     *string            `json:"location_details,omitempty"`
	Notes               *string            `json:"notes,omitempty"`
}

type cancelTaskRequest struct {
	Reason string `json:"reason,omitempty"`
}

func taskID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid task id")
	}
	return id, nil
}

func TasksList(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := tasks.ListQuery{
			ShowAll: r.URL.Query().Get("show_all") == "true",
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseTaskStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			query.Status = &status
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.Limit = limit

		result, err := svc.List(r.Context(), actor, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func TasksCreate(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireAdmin(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createTaskRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Create(r.Context(), actor, tasks.CreateInput{
			Title:               body.Title,
			Description:         body.Description,
			ContainerID:         body.ContainerID,
			DeliveryContainerID: body.DeliveryContainerID,
			AssignedTo:          body.AssignedTo,
			ScheduledTime:       body.ScheduledTime,
			PlannedQuantity:     body.PlannedQuantity,
			PlannedQuantityUnit: enums.QuantityUnit(body.PlannedQuantityUnit),
			Priority:            enums.TaskPriority(body.Priority),
			MaterialType:        body.MaterialType,
			EstimatedAmount:     body.EstimatedAmount,
			PickupLocation:      body.PickupLocation,
			DeliveryLocation:    body.DeliveryLocation,
			Notes:               body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func TasksGet(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := taskID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func TasksUpdate(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := taskID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updates, err := decodeJSONMap(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Patch(r.Context(), actor, id, updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func TasksDelete(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := taskID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func TaskAssign(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := taskID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body assignTaskRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Assign(r.Context(), actor, id, body.AssignedTo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func TaskAccept(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return taskScanAction(svc, logg, func(r *http.Request, actor tasks.Actor, id uuid.UUID, input tasks.ScanInput) (*tasks.LifecycleResult, error) {
		return svc.Accept(r.Context(), actor, id, input)
	})
}

func TaskPickup(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return taskScanAction(svc, logg, func(r *http.Request, actor tasks.Actor, id uuid.UUID, input tasks.ScanInput) (*tasks.LifecycleResult, error) {
		return svc.Pickup(r.Context(), actor, id, input)
	})
}

func taskScanAction(
	svc tasks.Service,
	logg *logger.Logger,
	action func(*http.Request, tasks.Actor, uuid.UUID, tasks.ScanInput) (*tasks.LifecycleResult, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := taskID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body taskScanRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		result, err := action(r, actor, id, tasks.ScanInput{
			GeoLocation:     body.GeoLocation,
			LocationDetails: body.LocationDetails,
			ResultMessage:   body.ResultMessage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func TaskDeliver(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := taskID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body deliverTaskRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		result, err := svc.Deliver(r.Context(), actor, id, tasks.DeliverInput{
			DeliveryContainerID: body.DeliveryContainerID,
			Amount:              body.Amount,
			GeoLocation:         body.GeoLocation,
			LocationDetails:     body.LocationDetails,
			Notes:               body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func TaskCancel(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := taskID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cancelTaskRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		result, err := svc.Cancel(r.Context(), actor, id, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
