package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/config"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"github.com/lukasbrandt/containerflow-backend/pkg/security"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	user      *models.User
	lastLogin *time.Time
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if r.user == nil || r.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	found := *r.user
	return &found, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.lastLogin = &at
	return nil
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func seedUser(t *testing.T, password string, active bool) *models.User {
	t.Helper()
	return &models.User{
		ID:           uuid.New(),
		Email:        "driver@example.com",
		PasswordHash: mustHashPassword(t, password),
		Name:         "Test Driver",
		Role:         enums.UserRoleDriver,
		IsActive:     active,
	}
}

func TestServiceLogin(t *testing.T) {
	repo := &fakeUserRepo{user: seedUser(t, "wheelie-bin", true)}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Driver@Example.com ",
		Password: "wheelie-bin",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User == nil || resp.User.Email != "driver@example.com" {
		t.Fatalf("expected sanitized user, got %+v", resp.User)
	}
	if resp.User.LastLoginAt == nil {
		t.Fatalf("expected last login timestamp on response")
	}
	if repo.lastLogin == nil {
		t.Fatalf("expected last login persisted")
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	repo := &fakeUserRepo{user: seedUser(t, "wheelie-bin", true)}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "driver@example.com",
		Password: "wrong",
	})
	assertUnauthorized(t, err)
	if repo.lastLogin != nil {
		t.Fatalf("failed login must not touch last_login_at")
	}
}

func TestServiceLoginInactiveUser(t *testing.T) {
	repo := &fakeUserRepo{user: seedUser(t, "wheelie-bin", false)}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "driver@example.com",
		Password: "wheelie-bin",
	})
	assertUnauthorized(t, err)
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	svc, err := NewService(&fakeUserRepo{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assertUnauthorized(t, err)
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected unauthorized error, got nil")
	}
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}
