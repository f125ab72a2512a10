package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/api/middleware"
	"github.com/lukasbrandt/containerflow-backend/internal/tasks"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
)

// actorFromContext rebuilds the authenticated actor seeded by the identity
// middleware.
func actorFromContext(ctx context.Context) (tasks.Actor, error) {
	id, err := uuid.Parse(middleware.UserIDFromContext(ctx))
	if err != nil {
		return tasks.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return tasks.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing role")
	}
	return tasks.Actor{ID: id, Role: role}, nil
}

// decodeJSONMap reads a free-form patch body. Struct validation does not
// apply to maps, so this skips the validator on purpose.
func decodeJSONMap(r *http.Request) (map[string]any, error) {
	defer io.Copy(io.Discard, r.Body)
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	return updates, nil
}

func requireAdmin(ctx context.Context) (tasks.Actor, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return tasks.Actor{}, err
	}
	if !actor.IsAdmin() {
		return tasks.Actor{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return actor, nil
}
