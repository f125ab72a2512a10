package scans

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/internal/activity"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	"github.com/lukasbrandt/containerflow-backend/pkg/pagination"
	"gorm.io/gorm"
)

type fakeRepository struct {
	createFn func(ctx context.Context, event *models.ScanEvent) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, event *models.ScanEvent) error {
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ScanEvent, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) List(ctx context.Context, filter ListFilter) ([]models.ScanEvent, error) {
	return nil, nil
}

type fakeActivity struct {
	appended []activity.AppendInput
}

func (f *fakeActivity) Append(ctx context.Context, tx *gorm.DB, input activity.AppendInput) (*models.ActivityLog, error) {
	f.appended = append(f.appended, input)
	return &models.ActivityLog{ID: uuid.New()}, nil
}

func (f *fakeActivity) List(ctx context.Context, filter activity.ListFilter) ([]models.ActivityLog, error) {
	return nil, nil
}

func (f *fakeActivity) ListPage(ctx context.Context, filter activity.ListFilter, params pagination.Params) (*activity.Page, error) {
	return &activity.Page{}, nil
}

func (f *fakeActivity) ExportCSV(ctx context.Context, filter activity.ListFilter, w io.Writer) error {
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func validInput() RecordInput {
	return RecordInput{
		ContainerID:     "CC-001",
		ContainerType:   enums.ContainerKindCustomer,
		ScannedByUserID: uuid.New(),
		ScanContext:     enums.ScanContextCustomerInfo,
		LocationType:    enums.LocationTypeCustomer,
	}
}

func TestService_RecordDefaultsResult(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo, &fakeActivity{}, fakeTxRunner{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.ScanEvent
	repo.createFn = func(ctx context.Context, event *models.ScanEvent) error {
		created = event
		return nil
	}

	if _, err := svc.Record(context.Background(), nil, validInput()); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if created.ScanResult != enums.ScanResultSuccess {
		t.Fatalf("expected default SUCCESS result, got %q", created.ScanResult)
	}
}

func TestService_RecordValidation(t *testing.T) {
	svc, _ := NewService(&fakeRepository{}, &fakeActivity{}, fakeTxRunner{})

	missingUser := validInput()
	missingUser.ScannedByUserID = uuid.Nil
	badContext := validInput()
	badContext.ScanContext = "DANCE"

	cases := []struct {
		name  string
		input RecordInput
	}{
		{"missing container", RecordInput{ContainerType: enums.ContainerKindCustomer}},
		{"missing user", missingUser},
		{"bad context", badContext},
	}

	for _, tc := range cases {
		if _, err := svc.Record(context.Background(), nil, tc.input); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestService_RecordStandaloneAppendsActivity(t *testing.T) {
	repo := &fakeRepository{}
	act := &fakeActivity{}
	svc, _ := NewService(repo, act, fakeTxRunner{})

	event, err := svc.RecordStandalone(context.Background(), validInput())
	if err != nil {
		t.Fatalf("RecordStandalone error: %v", err)
	}
	if event == nil {
		t.Fatal("expected scan event")
	}
	if len(act.appended) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(act.appended))
	}
	if act.appended[0].Type != enums.ActivityContainerScannedAtCustomer {
		t.Fatalf("unexpected activity type %q", act.appended[0].Type)
	}
}
