package users

import (
	"context"
	"testing"

	"github.com/lukasbrandt/containerflow-backend/pkg/config"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
)

func newValidationService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(nil), config.PasswordConfig{})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return svc
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error")
	}
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc := newValidationService(t)

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing email", CreateInput{Name: "Anna", Password: "long-enough"}},
		{"missing name", CreateInput{Email: "anna@example.com", Password: "long-enough"}},
		{"short password", CreateInput{Email: "anna@example.com", Name: "Anna", Password: "short"}},
		{"bad role", CreateInput{Email: "anna@example.com", Name: "Anna", Password: "long-enough", Role: "SUPERVISOR"}},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), tc.input)
		assertValidation(t, err)
	}
}

func TestCreateUserDTO_Defaults(t *testing.T) {
	user := CreateUserDTO{Email: "anna@example.com", Name: "Anna"}.ToModel()
	if user.Role != enums.UserRoleDriver {
		t.Fatalf("expected driver default, got %s", user.Role)
	}
	if !user.IsActive {
		t.Fatal("expected new accounts to be active")
	}

	inactive := false
	user = CreateUserDTO{Email: "b@example.com", Name: "B", IsActive: &inactive}.ToModel()
	if user.IsActive {
		t.Fatal("expected explicit inactive flag to stick")
	}
}

func TestFromModel_Nil(t *testing.T) {
	if FromModel(nil) != nil {
		t.Fatal("expected nil dto for nil model")
	}
}
