package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/api/responses"
	"github.com/lukasbrandt/containerflow-backend/api/validators"
	"github.com/lukasbrandt/containerflow-backend/internal/activity"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"github.com/lukasbrandt/containerflow-backend/pkg/logger"
	"github.com/lukasbrandt/containerflow-backend/pkg/pagination"
)

func activityFilterFromQuery(r *http.Request) (activity.ListFilter, error) {
	var filter activity.ListFilter
	if raw := r.URL.Query().Get("task_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid task_id")
		}
		filter.TaskID = &id
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid user_id")
		}
		filter.UserID = &id
	}
	if raw := r.URL.Query().Get("container_id"); raw != "" {
		filter.ContainerID = &raw
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		filter.Type = &raw
	}
	if raw := r.URL.Query().Get("since"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "since must be RFC3339")
		}
		filter.Since = &ts
	}
	if raw := r.URL.Query().Get("until"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "until must be RFC3339")
		}
		filter.Until = &ts
	}
	return filter, nil
}

func ActivityList(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := activityFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListPage(r.Context(), filter, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ActivityExport streams the filtered audit trail as a CSV download.
func ActivityExport(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := activityFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filename := fmt.Sprintf("activity-%s.csv", time.Now().UTC().Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := svc.ExportCSV(r.Context(), filter, w); err != nil {
			logg.Error(r.Context(), "activity.export.failed", err)
		}
	}
}
