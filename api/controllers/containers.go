package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/api/responses"
	"github.com/lukasbrandt/containerflow-backend/api/validators"
	"github.com/lukasbrandt/containerflow-backend/internal/containers"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"github.com/lukasbrandt/containerflow-backend/pkg/logger"
)

type createCustomerContainerRequest struct {
	ID                 string   `json:"id" validate:"required"`
	CustomerID         *string  `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	CustomerName       string   `json:"customer_name" validate:"required"`
	Location           string   `json:"location" validate:"required"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	MaterialType       string   `json:"material_type" validate:"required"`
	ContentDescription *string  `json:"content_description,omitempty"`
}

type createWarehouseContainerRequest struct {
	ID                 string  `json:"id" validate:"required"`
	Location           string  `json:"location" validate:"required"`
	WarehouseZone      *string `json:"warehouse_zone,omitempty"`
	MaterialType       string  `json:"material_type" validate:"required"`
	ContentDescription *string `json:"content_description,omitempty"`
	MaxCapacity        float64 `json:"max_capacity" validate:"required,gt=0"`
	QuantityUnit       string  `json:"quantity_unit,omitempty"`
}

type resetContainerRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func CustomerContainersList(svc containers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := r.URL.Query().Get("include_inactive") == "true"
		result, err := svc.ListCustomer(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CustomerContainersCreate(svc containers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requireAdmin(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createCustomerContainerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := containers.CreateCustomerContainerInput{
			ID:                 body.ID,
			CustomerName:       body.CustomerName,
			Location:           body.Location,
			Latitude:           body.Latitude,
			Longitude:          body.Longitude,
			MaterialType:       body.MaterialType,
			ContentDescription: body.ContentDescription,
		}
		if body.CustomerID != nil {
			id, err := parseUUIDPtr(*body.CustomerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.CustomerID = id
		}
		result, err := svc.CreateCustomer(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func WarehouseContainersList(svc containers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := r.URL.Query().Get("include_inactive") == "true"
		result, err := svc.ListWarehouse(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func WarehouseContainersCreate(svc containers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requireAdmin(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createWarehouseContainerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreateWarehouse(r.Context(), containers.CreateWarehouseContainerInput{
			ID:                 body.ID,
			Location:           body.Location,
			WarehouseZone:      body.WarehouseZone,
			MaterialType:       body.MaterialType,
			ContentDescription: body.ContentDescription,
			MaxCapacity:        body.MaxCapacity,
			QuantityUnit:       enums.QuantityUnit(body.QuantityUnit),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CustomerContainersGet resolves by QR code first and falls back to the raw
// container id, so scanned codes and typed ids share one endpoint.
func CustomerContainersGet(svc containers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.GetCustomerByKey(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func WarehouseContainersGet(svc containers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.GetWarehouseByKey(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CustomerContainersUpdate(svc containers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requireAdmin(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updates, err := decodeJSONMap(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UpdateCustomer(r.Context(), chi.URLParam(r, "containerId"), updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func WarehouseContainersUpdate(svc containers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requireAdmin(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updates, err := decodeJSONMap(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UpdateWarehouse(r.Context(), chi.URLParam(r, "containerId"), updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ContainersRegenerateQR(svc containers.Service, kind enums.ContainerKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireAdmin(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qrCode, err := svc.RegenerateQR(r.Context(), kind, chi.URLParam(r, "containerId"), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"qr_code": qrCode})
	}
}

// WarehouseContainersReset empties a warehouse container after the material
// has been hauled away. Drivers do this on site, so no admin gate.
func WarehouseContainersReset(svc containers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body resetContainerRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		result, err := svc.Reset(r.Context(), containers.ResetInput{
			ContainerID: chi.URLParam(r, "containerId"),
			ActorUserID: actor.ID,
			Reason:      body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func WarehouseContainersFillHistory(svc containers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.FillHistory(r.Context(), chi.URLParam(r, "containerId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseUUIDPtr(raw string) (*uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid uuid")
	}
	return &id, nil
}
