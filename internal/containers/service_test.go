package containers

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/internal/activity"
	"github.com/lukasbrandt/containerflow-backend/internal/ledger"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"github.com/lukasbrandt/containerflow-backend/pkg/pagination"
	"gorm.io/gorm"
)

type fakeRepository struct {
	customers  map[string]*models.CustomerContainer
	warehouses map[string]*models.WarehouseContainer

	customerUpdates  []map[string]any
	warehouseUpdates []map[string]any
	resetCalls       int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		customers:  map[string]*models.CustomerContainer{},
		warehouses: map[string]*models.WarehouseContainer{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateCustomer(ctx context.Context, c *models.CustomerContainer) error {
	f.customers[c.ID] = c
	return nil
}

func (f *fakeRepository) FindCustomerByID(ctx context.Context, id string) (*models.CustomerContainer, error) {
	if c, ok := f.customers[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindCustomerByQR(ctx context.Context, qr string) (*models.CustomerContainer, error) {
	for _, c := range f.customers {
		if c.QRCode == qr {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListCustomer(ctx context.Context, includeInactive bool) ([]models.CustomerContainer, error) {
	return nil, nil
}

func (f *fakeRepository) UpdateCustomer(ctx context.Context, id string, updates map[string]any) error {
	f.customerUpdates = append(f.customerUpdates, updates)
	if qr, ok := updates["qr_code"].(string); ok {
		if c, found := f.customers[id]; found {
			c.QRCode = qr
		}
	}
	return nil
}

func (f *fakeRepository) CreateWarehouse(ctx context.Context, c *models.WarehouseContainer) error {
	f.warehouses[c.ID] = c
	return nil
}

func (f *fakeRepository) FindWarehouseByID(ctx context.Context, id string) (*models.WarehouseContainer, error) {
	if c, ok := f.warehouses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindWarehouseByQR(ctx context.Context, qr string) (*models.WarehouseContainer, error) {
	for _, c := range f.warehouses {
		if c.QRCode == qr {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListWarehouse(ctx context.Context, includeInactive bool) ([]models.WarehouseContainer, error) {
	return nil, nil
}

func (f *fakeRepository) UpdateWarehouse(ctx context.Context, id string, updates map[string]any) error {
	f.warehouseUpdates = append(f.warehouseUpdates, updates)
	return nil
}

func (f *fakeRepository) IncrementFill(ctx context.Context, id string, amount float64) (bool, error) {
	c, ok := f.warehouses[id]
	if !ok {
		return false, nil
	}
	if c.CurrentAmount+amount > c.MaxCapacity {
		return false, nil
	}
	c.CurrentAmount += amount
	return true, nil
}

func (f *fakeRepository) ResetFill(ctx context.Context, id string, at time.Time) error {
	f.resetCalls++
	if c, ok := f.warehouses[id]; ok {
		c.CurrentAmount = 0
		c.LastEmptied = &at
	}
	return nil
}

func (f *fakeRepository) MarkCustomerEmptied(ctx context.Context, id string, at time.Time) error {
	return nil
}

type fakeLedger struct {
	deltas []ledger.RecordDeltaInput
}

func (f *fakeLedger) RecordDelta(ctx context.Context, tx *gorm.DB, input ledger.RecordDeltaInput) (*models.FillHistory, error) {
	f.deltas = append(f.deltas, input)
	return &models.FillHistory{}, nil
}

func (f *fakeLedger) ListByContainer(ctx context.Context, containerID string) ([]models.FillHistory, error) {
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

func newTestService(t *testing.T, repo *fakeRepository) (*service, *fakeLedger, *fakeActivity) {
	t.Helper()
	led := &fakeLedger{}
	act := &fakeActivity{}
	svc, err := NewService(repo, led, act, fakeTxRunner{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return impl, led, act
}

func TestCreateWarehouse_StableQR(t *testing.T) {
	repo := newFakeRepository()
	svc, _, _ := newTestService(t, repo)

	container, err := svc.CreateWarehouse(context.Background(), CreateWarehouseContainerInput{
		ID:           "WH-001",
		Location:     "Hall A",
		MaterialType: "Papier",
		MaxCapacity:  500,
	})
	if err != nil {
		t.Fatalf("CreateWarehouse error: %v", err)
	}
	if container.QRCode != "warehouse-WH-001" {
		t.Fatalf("expected deterministic QR, got %q", container.QRCode)
	}
	if container.QuantityUnit != enums.QuantityUnitKilogram {
		t.Fatalf("expected kg default unit, got %q", container.QuantityUnit)
	}
}

func TestGetCustomerByKey_RawIDFallback(t *testing.T) {
	repo := newFakeRepository()
	repo.customers["CC-001"] = &models.CustomerContainer{ID: "CC-001", QRCode: "customer-CC-001"}
	svc, _, _ := newTestService(t, repo)

	byQR, err := svc.GetCustomerByKey(context.Background(), "customer-CC-001")
	if err != nil {
		t.Fatalf("lookup by QR failed: %v", err)
	}
	byID, err := svc.GetCustomerByKey(context.Background(), "CC-001")
	if err != nil {
		t.Fatalf("lookup by raw id failed: %v", err)
	}
	if byQR.ID != byID.ID {
		t.Fatal("expected both lookups to resolve the same container")
	}

	_, err = svc.GetCustomerByKey(context.Background(), "missing")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdateWarehouse_StripsGuardedFields(t *testing.T) {
	repo := newFakeRepository()
	repo.warehouses["WH-001"] = &models.WarehouseContainer{ID: "WH-001", QRCode: "warehouse-WH-001", MaxCapacity: 500}
	svc, _, _ := newTestService(t, repo)

	_, err := svc.UpdateWarehouse(context.Background(), "WH-001", map[string]any{
		"qr_code":        "forged",
		"current_amount": 9999,
		"location":       "Hall B",
	})
	if err != nil {
		t.Fatalf("UpdateWarehouse error: %v", err)
	}
	if len(repo.warehouseUpdates) != 1 {
		t.Fatalf("expected one update, got %d", len(repo.warehouseUpdates))
	}
	applied := repo.warehouseUpdates[0]
	if _, ok := applied["qr_code"]; ok {
		t.Fatal("qr_code must not be patchable")
	}
	if _, ok := applied["current_amount"]; ok {
		t.Fatal("current_amount must not be patchable")
	}
	if applied["location"] != "Hall B" {
		t.Fatalf("expected location patch to survive, got %+v", applied)
	}
}

func TestRegenerateQR_WritesActivity(t *testing.T) {
	repo := newFakeRepository()
	repo.customers["CC-001"] = &models.CustomerContainer{ID: "CC-001", QRCode: "customer-CC-001"}
	svc, _, act := newTestService(t, repo)

	newCode, err := svc.RegenerateQR(context.Background(), enums.ContainerKindCustomer, "CC-001", uuid.New())
	if err != nil {
		t.Fatalf("RegenerateQR error: %v", err)
	}
	want := "customer-CC-001-1740830400000"
	if newCode != want {
		t.Fatalf("expected %q, got %q", want, newCode)
	}
	if len(act.appended) != 1 {
		t.Fatalf("expected activity entry, got %d", len(act.appended))
	}
	meta := act.appended[0].Metadata
	if meta["old_qr_code"] != "customer-CC-001" || meta["new_qr_code"] != newCode {
		t.Fatalf("expected old/new codes in metadata, got %+v", meta)
	}
}

func TestReset_RecordsNegativeDelta(t *testing.T) {
	repo := newFakeRepository()
	repo.warehouses["WH-001"] = &models.WarehouseContainer{
		ID:            "WH-001",
		CurrentAmount: 120,
		MaxCapacity:   500,
		QuantityUnit:  enums.QuantityUnitKilogram,
	}
	svc, led, act := newTestService(t, repo)

	result, err := svc.Reset(context.Background(), ResetInput{ContainerID: "WH-001", ActorUserID: uuid.New()})
	if err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	if result.AlreadyEmpty {
		t.Fatal("expected a real reset")
	}
	if result.AmountRemoved != 120 || result.Container.CurrentAmount != 0 {
		t.Fatalf("unexpected reset result: %+v", result)
	}
	if len(led.deltas) != 1 || led.deltas[0].AmountAdded != -120 {
		t.Fatalf("expected one -120 ledger delta, got %+v", led.deltas)
	}
	if len(act.appended) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(act.appended))
	}
}

func TestReset_AlreadyEmptyNoOp(t *testing.T) {
	repo := newFakeRepository()
	repo.warehouses["WH-001"] = &models.WarehouseContainer{ID: "WH-001", MaxCapacity: 500}
	svc, led, act := newTestService(t, repo)

	result, err := svc.Reset(context.Background(), ResetInput{ContainerID: "WH-001", ActorUserID: uuid.New()})
	if err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	if !result.AlreadyEmpty {
		t.Fatal("expected already-empty response")
	}
	if repo.resetCalls != 0 {
		t.Fatal("reset must not touch the row when already empty")
	}
	if len(led.deltas) != 0 || len(act.appended) != 0 {
		t.Fatal("no ledger or activity writes expected for the no-op")
	}
}
