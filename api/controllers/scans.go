package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/api/responses"
	"github.com/lukasbrandt/containerflow-backend/api/validators"
	"github.com/lukasbrandt/containerflow-backend/internal/scans"
	dbtypes "github.com/lukasbrandt/containerflow-backend/pkg/db/types"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"github.com/lukasbrandt/containerflow-backend/pkg/logger"
	"github.com/lukasbrandt/containerflow-backend/pkg/types"
)

type createScanRequest struct {
	ContainerID     string             `json:"container_id" validate:"required"`
	ContainerType   string             `json:"container_type" validate:"required"`
	TaskID          *uuid.UUID         `json:"task_id,omitempty"`
	ScanContext     string             `json:"scan_context" validate:"required"`
	LocationType    string             `json:"location_type" validate:"required"`
	LocationDetails *string            `json:"location_details,omitempty"`
	GeoLocation     *types.GeoLocation `json:"geo_location,omitempty"`
	ScanResult      string             `json:"scan_result,omitempty"`
	ResultMessage   *string            `json:"result_message,omitempty"`
	ExtraData       dbtypes.JSONMap    `json:"extra_data,omitempty"`
}

func ScansCreate(svc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createScanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result := enums.ScanResultSuccess
		if body.ScanResult != "" {
			result = enums.ScanResult(body.ScanResult)
		}
		event, err := svc.RecordStandalone(r.Context(), scans.RecordInput{
			ContainerID:     body.ContainerID,
			ContainerType:   enums.ContainerKind(body.ContainerType),
			TaskID:          body.TaskID,
			ScannedByUserID: actor.ID,
			ScanContext:     enums.ScanContext(body.ScanContext),
			LocationType:    enums.LocationType(body.LocationType),
			LocationDetails: body.LocationDetails,
			GeoLocation:     body.GeoLocation,
			ScanResult:      result,
			ResultMessage:   body.ResultMessage,
			ExtraData:       body.ExtraData,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

func ScansList(svc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter scans.ListFilter
		if raw := r.URL.Query().Get("container_id"); raw != "" {
			filter.ContainerID = &raw
		}
		if raw := r.URL.Query().Get("task_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid task_id"))
				return
			}
			filter.TaskID = &id
		}
		if raw := r.URL.Query().Get("user_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid user_id"))
				return
			}
			filter.UserID = &id
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Limit = limit
		events, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}

func ScansGet(svc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "scanId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid scan event id"))
			return
		}
		event, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}
