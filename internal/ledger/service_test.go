package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	"gorm.io/gorm"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.FillHistory) error
	listFn   func(ctx context.Context, containerID string) ([]models.FillHistory, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.FillHistory) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) ListByContainerID(ctx context.Context, containerID string) ([]models.FillHistory, error) {
	if f.listFn != nil {
		return f.listFn(ctx, containerID)
	}
	return nil, nil
}

func TestService_RecordDelta(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	taskID := uuid.New()
	userID := uuid.New()
	input := RecordDeltaInput{
		WarehouseContainerID: "WH-001",
		AmountAdded:          50,
		QuantityUnit:         enums.QuantityUnitKilogram,
		TaskID:               &taskID,
		RecordedByUserID:     &userID,
	}

	var created *models.FillHistory
	repo.createFn = func(ctx context.Context, entry *models.FillHistory) error {
		created = entry
		return nil
	}

	got, err := svc.RecordDelta(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("RecordDelta error: %v", err)
	}
	if created == nil {
		t.Fatal("expected fill history entry to be created")
	}
	if created.WarehouseContainerID != input.WarehouseContainerID || created.AmountAdded != input.AmountAdded {
		t.Fatalf("unexpected entry data: %+v", created)
	}
	if created.TaskID == nil || *created.TaskID != taskID {
		t.Fatalf("task reference missing: %+v", created)
	}
	if got != created {
		t.Fatalf("service should return created entry")
	}
}

func TestService_RecordDeltaValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	cases := []struct {
		name  string
		input RecordDeltaInput
	}{
		{"missing container", RecordDeltaInput{AmountAdded: 10, QuantityUnit: enums.QuantityUnitKilogram}},
		{"zero delta", RecordDeltaInput{WarehouseContainerID: "WH-001", QuantityUnit: enums.QuantityUnitKilogram}},
		{"bad unit", RecordDeltaInput{WarehouseContainerID: "WH-001", AmountAdded: 10, QuantityUnit: "liters"}},
	}

	for _, tc := range cases {
		if _, err := svc.RecordDelta(context.Background(), nil, tc.input); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestService_RecordDeltaAcceptsNegative(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	got, err := svc.RecordDelta(context.Background(), nil, RecordDeltaInput{
		WarehouseContainerID: "WH-001",
		AmountAdded:          -120,
		QuantityUnit:         enums.QuantityUnitKilogram,
	})
	if err != nil {
		t.Fatalf("RecordDelta error: %v", err)
	}
	if got.AmountAdded != -120 {
		t.Fatalf("expected negative delta preserved, got %v", got.AmountAdded)
	}
}
