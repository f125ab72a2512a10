package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/api/responses"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"github.com/lukasbrandt/containerflow-backend/pkg/logger"
	"gorm.io/gorm"
)

// UserIDHeader names the trusted identity header set by the gateway.
const UserIDHeader = "X-User-Id"

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Identity resolves the caller from the identity header, rejects unknown or
// deactivated accounts and seeds the request context with the user id and
// role.
func Identity(users userLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := r.Header.Get(UserIDHeader)
			if raw == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity header"))
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid identity header"))
				return
			}

			user, err := users.FindByID(ctx, userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user"))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve identity"))
				return
			}
			if !user.IsActive {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account deactivated"))
				return
			}

			ctx = WithUserID(ctx, user.ID.String())
			ctx = WithRole(ctx, string(user.Role))
			ctx = logg.WithUserID(ctx, user.ID.String())
			ctx = logg.WithActorRole(ctx, string(user.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
