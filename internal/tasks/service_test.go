package tasks

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/internal/activity"
	"github.com/lukasbrandt/containerflow-backend/internal/containers"
	"github.com/lukasbrandt/containerflow-backend/internal/ledger"
	"github.com/lukasbrandt/containerflow-backend/internal/scans"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"github.com/lukasbrandt/containerflow-backend/pkg/metrics"
	"github.com/lukasbrandt/containerflow-backend/pkg/pagination"
	"gorm.io/gorm"
)

type fakeTaskRepo struct {
	tasks      map[uuid.UUID]*models.Task
	lastFilter *ListFilter
	lastUpdate map[string]any
	nullified  []uuid.UUID
	deleted    []uuid.UUID
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[uuid.UUID]*models.Task{}}
}

func (r *fakeTaskRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *fakeTaskRepo) Create(_ context.Context, task *models.Task) error {
	stored := *task
	r.tasks[task.ID] = &stored
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *task
	return &found, nil
}

func (r *fakeTaskRepo) List(_ context.Context, filter ListFilter) ([]models.Task, error) {
	r.lastFilter = &filter
	return nil, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	r.lastUpdate = updates
	return nil
}

func (r *fakeTaskRepo) Save(_ context.Context, task *models.Task) error {
	stored := *task
	r.tasks[task.ID] = &stored
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.deleted = append(r.deleted, id)
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) NullifyReferences(_ context.Context, id uuid.UUID) error {
	r.nullified = append(r.nullified, id)
	return nil
}

type fakeContainerRepo struct {
	customers  map[string]*models.CustomerContainer
	warehouses map[string]*models.WarehouseContainer
}

func newFakeContainerRepo() *fakeContainerRepo {
	return &fakeContainerRepo{
		customers:  map[string]*models.CustomerContainer{},
		warehouses: map[string]*models.WarehouseContainer{},
	}
}

func (r *fakeContainerRepo) WithTx(tx *gorm.DB) containers.Repository { return r }

func (r *fakeContainerRepo) CreateCustomer(_ context.Context, c *models.CustomerContainer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeContainerRepo) FindCustomerByID(_ context.Context, id string) (*models.CustomerContainer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *c
	return &found, nil
}

func (r *fakeContainerRepo) FindCustomerByQR(_ context.Context, qr string) (*models.CustomerContainer, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeContainerRepo) ListCustomer(_ context.Context, _ bool) ([]models.CustomerContainer, error) {
	return nil, nil
}

func (r *fakeContainerRepo) UpdateCustomer(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func (r *fakeContainerRepo) CreateWarehouse(_ context.Context, w *models.WarehouseContainer) error {
	r.warehouses[w.ID] = w
	return nil
}

func (r *fakeContainerRepo) FindWarehouseByID(_ context.Context, id string) (*models.WarehouseContainer, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *w
	return &found, nil
}

func (r *fakeContainerRepo) FindWarehouseByQR(_ context.Context, qr string) (*models.WarehouseContainer, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeContainerRepo) ListWarehouse(_ context.Context, _ bool) ([]models.WarehouseContainer, error) {
	return nil, nil
}

func (r *fakeContainerRepo) UpdateWarehouse(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func (r *fakeContainerRepo) IncrementFill(_ context.Context, id string, amount float64) (bool, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return false, nil
	}
	if w.CurrentAmount+amount > w.MaxCapacity {
		return false, nil
	}
	w.CurrentAmount += amount
	return true, nil
}

func (r *fakeContainerRepo) ResetFill(_ context.Context, id string, at time.Time) error {
	if w, ok := r.warehouses[id]; ok {
		w.CurrentAmount = 0
		w.LastEmptied = &at
	}
	return nil
}

func (r *fakeContainerRepo) MarkCustomerEmptied(_ context.Context, id string, at time.Time) error {
	if c, ok := r.customers[id]; ok {
		c.LastEmptied = &at
		c.Status = enums.ContainerStatusAtCustomer
	}
	return nil
}

type fakeLedger struct {
	entries []ledger.RecordDeltaInput
}

func (l *fakeLedger) RecordDelta(_ context.Context, _ *gorm.DB, input ledger.RecordDeltaInput) (*models.FillHistory, error) {
	l.entries = append(l.entries, input)
	return &models.FillHistory{ID: uuid.New()}, nil
}

func (l *fakeLedger) ListByContainer(_ context.Context, _ string) ([]models.FillHistory, error) {
	return nil, nil
}

type fakeActivity struct {
	entries []activity.AppendInput
}

func (a *fakeActivity) Append(_ context.Context, _ *gorm.DB, input activity.AppendInput) (*models.ActivityLog, error) {
	a.entries = append(a.entries, input)
	return &models.ActivityLog{ID: uuid.New()}, nil
}

func (a *fakeActivity) List(_ context.Context, _ activity.ListFilter) ([]models.ActivityLog, error) {
	return nil, nil
}

func (a *fakeActivity) ListPage(_ context.Context, _ activity.ListFilter, _ pagination.Params) (*activity.Page, error) {
	return &activity.Page{}, nil
}

func (a *fakeActivity) ExportCSV(_ context.Context, _ activity.ListFilter, _ io.Writer) error {
	return nil
}

func (a *fakeActivity) typesLogged() []enums.ActivityLogType {
	out := make([]enums.ActivityLogType, 0, len(a.entries))
	for _, entry := range a.entries {
		out = append(out, entry.Type)
	}
	return out
}

type fakeScans struct {
	records []scans.RecordInput
}

func (s *fakeScans) Record(_ context.Context, _ *gorm.DB, input scans.RecordInput) (*models.ScanEvent, error) {
	s.records = append(s.records, input)
	return &models.ScanEvent{ID: uuid.New()}, nil
}

func (s *fakeScans) RecordStandalone(_ context.Context, input scans.RecordInput) (*models.ScanEvent, error) {
	return s.Record(nil, nil, input)
}

func (s *fakeScans) Get(_ context.Context, _ uuid.UUID) (*models.ScanEvent, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeScans) List(_ context.Context, _ scans.ListFilter) ([]models.ScanEvent, error) {
	return nil, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type testEnv struct {
	svc        Service
	tasks      *fakeTaskRepo
	containers *fakeContainerRepo
	ledger     *fakeLedger
	activity   *fakeActivity
	scans      *fakeScans
	now        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		tasks:      newFakeTaskRepo(),
		containers: newFakeContainerRepo(),
		ledger:     &fakeLedger{},
		activity:   &fakeActivity{},
		scans:      &fakeScans{},
		now:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(env.tasks, env.containers, env.ledger, env.activity, env.scans, fakeTxRunner{}, metrics.NewLifecycleMetrics(nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.(*service).now = func() time.Time { return env.now }
	env.svc = svc

	env.containers.customers["CC-001"] = &models.CustomerContainer{
		ID:           "CC-001",
		CustomerName: "Bakery Nord",
		Location:     "Hamburg",
		QRCode:       "customer-CC-001",
		MaterialType: "paper",
		Status:       enums.ContainerStatusAtCustomer,
		IsActive:     true,
	}
	env.containers.warehouses["WH-001"] = &models.WarehouseContainer{
		ID:           "WH-001",
		Location:     "Hall A",
		QRCode:       "warehouse-WH-001",
		MaterialType: "paper",
		MaxCapacity:  500,
		QuantityUnit: enums.QuantityUnitKilogram,
		Status:       enums.ContainerStatusAtWarehouse,
		IsActive:     true,
	}
	return env
}

func (env *testEnv) seedTask(t *testing.T, mutate func(*models.Task)) *models.Task {
	t.Helper()
	task := &models.Task{
		ID:                  uuid.New(),
		ContainerID:         "CC-001",
		MaterialType:        "paper",
		PlannedQuantityUnit: enums.QuantityUnitKilogram,
		Priority:            enums.TaskPriorityNormal,
		Status:              enums.TaskStatusOpen,
	}
	if mutate != nil {
		mutate(task)
	}
	stored := *task
	env.tasks.tasks[task.ID] = &stored
	return task
}

func admin() Actor  { return Actor{ID: uuid.New(), Role: enums.UserRoleAdmin} }
func driver() Actor { return Actor{ID: uuid.New(), Role: enums.UserRoleDriver} }

func assertCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	coded := pkgerrors.As(err)
	if coded == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if coded.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, coded.Code(), err)
	}
	return coded
}

func float(v float64) *float64 { return &v }

func str(v string) *string { return &v }

func TestCreate_StartsOpen(t *testing.T) {
	env := newTestEnv(t)

	task, err := env.svc.Create(context.Background(), admin(), CreateInput{
		ContainerID: "CC-001",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Status != enums.TaskStatusOpen {
		t.Fatalf("expected status OPEN, got %s", task.Status)
	}
	if task.MaterialType != "paper" {
		t.Fatalf("expected material inherited from container, got %q", task.MaterialType)
	}
	if len(env.activity.entries) != 1 || env.activity.entries[0].Type != enums.ActivityTaskCreated {
		t.Fatalf("expected one TASK_CREATED entry, got %v", env.activity.typesLogged())
	}
}

func TestCreate_UnknownContainer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), admin(), CreateInput{ContainerID: "CC-404"})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreate_RejectsOverfullPlan(t *testing.T) {
	env := newTestEnv(t)
	env.containers.warehouses["WH-001"].CurrentAmount = 450

	_, err := env.svc.Create(context.Background(), admin(), CreateInput{
		ContainerID:         "CC-001",
		DeliveryContainerID: str("WH-001"),
		PlannedQuantity:     float(100),
	})
	coded := assertCode(t, err, pkgerrors.CodeCapacityExceeded)
	details, ok := coded.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected map details, got %T", coded.Details())
	}
	if details["remaining_capacity"] != float64(50) {
		t.Fatalf("expected remaining_capacity 50, got %v", details["remaining_capacity"])
	}
}

func TestCreate_RejectsMaterialMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.containers.warehouses["WH-001"].MaterialType = "glass"

	_, err := env.svc.Create(context.Background(), admin(), CreateInput{
		ContainerID:         "CC-001",
		DeliveryContainerID: str("WH-001"),
		PlannedQuantity:     float(10),
	})
	assertCode(t, err, pkgerrors.CodeMaterialMismatch)
}

func TestCreate_MaterialCompareIsCaseSensitive(t *testing.T) {
	env := newTestEnv(t)
	env.containers.warehouses["WH-001"].MaterialType = "Paper"

	_, err := env.svc.Create(context.Background(), admin(), CreateInput{
		ContainerID:         "CC-001",
		DeliveryContainerID: str("WH-001"),
		PlannedQuantity:     float(10),
	})
	assertCode(t, err, pkgerrors.CodeMaterialMismatch)
}

func TestCreate_ZeroPlanSkipsCapacityCheck(t *testing.T) {
	env := newTestEnv(t)
	env.containers.warehouses["WH-001"].CurrentAmount = 500

	_, err := env.svc.Create(context.Background(), admin(), CreateInput{
		ContainerID:         "CC-001",
		DeliveryContainerID: str("WH-001"),
	})
	if err != nil {
		t.Fatalf("Create without planned quantity: %v", err)
	}
}

func TestAssign_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, nil)

	_, err := env.svc.Assign(context.Background(), driver(), task.ID, uuid.New())
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestAssign_MovesToAssigned(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, nil)
	assignee := uuid.New()

	updated, err := env.svc.Assign(context.Background(), admin(), task.ID, assignee)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if updated.Status != enums.TaskStatusAssigned {
		t.Fatalf("expected ASSIGNED, got %s", updated.Status)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != assignee {
		t.Fatalf("expected assignee %s, got %v", assignee, updated.AssignedTo)
	}
	if updated.AssignedAt == nil || !updated.AssignedAt.Equal(env.now) {
		t.Fatalf("expected assigned_at %v, got %v", env.now, updated.AssignedAt)
	}
}

func TestAccept_AutoAssignsActor(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, nil)
	actor := driver()

	result, err := env.svc.Accept(context.Background(), actor, task.ID, ScanInput{})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	got := result.Task
	if got.Status != enums.TaskStatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", got.Status)
	}
	if got.AssignedTo == nil || *got.AssignedTo != actor.ID {
		t.Fatalf("expected auto-assignment to actor, got %v", got.AssignedTo)
	}
	if got.AssignedAt == nil || got.AcceptedAt == nil {
		t.Fatalf("expected assigned_at and accepted_at backfilled")
	}
	if len(env.scans.records) != 1 || env.scans.records[0].ScanContext != enums.ScanContextTaskAcceptAtCustomer {
		t.Fatalf("expected one TASK_ACCEPT_AT_CUSTOMER scan, got %v", env.scans.records)
	}
}

func TestAccept_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	actor := driver()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusAccepted
		task.AssignedTo = &actor.ID
	})

	result, err := env.svc.Accept(context.Background(), actor, task.ID, ScanInput{})
	if err != nil {
		t.Fatalf("Accept replay: %v", err)
	}
	if !result.AlreadyAccepted {
		t.Fatalf("expected AlreadyAccepted flag")
	}
	if len(env.scans.records) != 0 || len(env.activity.entries) != 0 {
		t.Fatalf("replay must not write scan or activity rows")
	}
}

func TestAccept_ForbiddenForOtherDriver(t *testing.T) {
	env := newTestEnv(t)
	assignee := uuid.New()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusAssigned
		task.AssignedTo = &assignee
	})

	_, err := env.svc.Accept(context.Background(), driver(), task.ID, ScanInput{})
	coded := assertCode(t, err, pkgerrors.CodeForbidden)
	details, ok := coded.Details().(map[string]any)
	if !ok || details["assigned_to"] != assignee.String() {
		t.Fatalf("expected current assignee in details, got %v", coded.Details())
	}
}

func TestAccept_ForbiddenBeforeReplayForOtherDriver(t *testing.T) {
	env := newTestEnv(t)
	assignee := uuid.New()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusAccepted
		task.AssignedTo = &assignee
	})

	_, err := env.svc.Accept(context.Background(), driver(), task.ID, ScanInput{})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestPickup_ForbiddenBeforeReplayForOtherDriver(t *testing.T) {
	env := newTestEnv(t)
	assignee := uuid.New()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusInTransit
		task.AssignedTo = &assignee
	})

	_, err := env.svc.Pickup(context.Background(), driver(), task.ID, ScanInput{})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestDeliver_ForbiddenBeforeReplayForOtherDriver(t *testing.T) {
	env := newTestEnv(t)
	assignee := uuid.New()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusCompleted
		task.AssignedTo = &assignee
	})

	_, err := env.svc.Deliver(context.Background(), driver(), task.ID, DeliverInput{})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestPickup_RequiresAccepted(t *testing.T) {
	env := newTestEnv(t)
	actor := driver()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusAssigned
		task.AssignedTo = &actor.ID
	})

	_, err := env.svc.Pickup(context.Background(), actor, task.ID, ScanInput{})
	assertCode(t, err, pkgerrors.CodeInvalidTransition)

	stored := env.tasks.tasks[task.ID]
	if stored.Status != enums.TaskStatusAssigned {
		t.Fatalf("rejected pickup must not mutate status, got %s", stored.Status)
	}
}

func TestPickup_RecordsScan(t *testing.T) {
	env := newTestEnv(t)
	actor := driver()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusAccepted
		task.AssignedTo = &actor.ID
	})

	result, err := env.svc.Pickup(context.Background(), actor, task.ID, ScanInput{})
	if err != nil {
		t.Fatalf("Pickup: %v", err)
	}
	if result.Task.Status != enums.TaskStatusPickedUp {
		t.Fatalf("expected PICKED_UP, got %s", result.Task.Status)
	}
	if result.Task.PickedUpAt == nil {
		t.Fatalf("expected picked_up_at set")
	}
	if len(env.scans.records) != 1 || env.scans.records[0].ScanContext != enums.ScanContextTaskPickup {
		t.Fatalf("expected one TASK_PICKUP scan, got %v", env.scans.records)
	}
}

func TestDeliver_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	actor := driver()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusPickedUp
		task.AssignedTo = &actor.ID
		task.DeliveryContainerID = str("WH-001")
		task.PlannedQuantity = float(50)
	})

	result, err := env.svc.Deliver(context.Background(), actor, task.ID, DeliverInput{})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	got := result.Task
	if got.Status != enums.TaskStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.Status)
	}
	if got.ActualQuantity == nil || *got.ActualQuantity != 50 {
		t.Fatalf("expected actual quantity 50, got %v", got.ActualQuantity)
	}
	if got.DeliveredAt == nil || got.CompletedAt == nil {
		t.Fatalf("expected delivered_at and completed_at set")
	}
	if amount := env.containers.warehouses["WH-001"].CurrentAmount; amount != 50 {
		t.Fatalf("expected container at 50, got %v", amount)
	}
	if len(env.ledger.entries) != 1 || env.ledger.entries[0].AmountAdded != 50 {
		t.Fatalf("expected one +50 ledger entry, got %v", env.ledger.entries)
	}
	if env.containers.customers["CC-001"].LastEmptied == nil {
		t.Fatalf("expected customer container marked emptied")
	}
	if len(env.scans.records) != 1 || env.scans.records[0].ScanContext != enums.ScanContextTaskCompleteAtWarehouse {
		t.Fatalf("expected one TASK_COMPLETE_AT_WAREHOUSE scan, got %v", env.scans.records)
	}
	types := env.activity.typesLogged()
	if len(types) != 2 || types[0] != enums.ActivityTaskDelivered || types[1] != enums.ActivityTaskCompleted {
		t.Fatalf("expected TASK_DELIVERED then TASK_COMPLETED, got %v", types)
	}
}

func TestDeliver_CapacityExceeded(t *testing.T) {
	env := newTestEnv(t)
	actor := driver()
	env.containers.warehouses["WH-001"].CurrentAmount = 450
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusPickedUp
		task.AssignedTo = &actor.ID
		task.DeliveryContainerID = str("WH-001")
	})

	_, err := env.svc.Deliver(context.Background(), actor, task.ID, DeliverInput{Amount: float(100)})
	coded := assertCode(t, err, pkgerrors.CodeCapacityExceeded)
	details, ok := coded.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected map details, got %T", coded.Details())
	}
	if details["remaining_capacity"] != float64(50) || details["requested_amount"] != float64(100) {
		t.Fatalf("unexpected details %v", details)
	}

	stored := env.tasks.tasks[task.ID]
	if stored.Status != enums.TaskStatusPickedUp {
		t.Fatalf("rejected delivery must not advance the task, got %s", stored.Status)
	}
	if len(env.ledger.entries) != 0 {
		t.Fatalf("rejected delivery must not write ledger entries")
	}
}

func TestDeliver_AmountFallsBackToEstimate(t *testing.T) {
	env := newTestEnv(t)
	actor := driver()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusPickedUp
		task.AssignedTo = &actor.ID
		task.DeliveryContainerID = str("WH-001")
		task.EstimatedAmount = float(30)
	})

	result, err := env.svc.Deliver(context.Background(), actor, task.ID, DeliverInput{})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if result.Task.ActualQuantity == nil || *result.Task.ActualQuantity != 30 {
		t.Fatalf("expected fallback to estimated amount 30, got %v", result.Task.ActualQuantity)
	}
}

func TestDeliver_AlreadyCompleted(t *testing.T) {
	env := newTestEnv(t)
	actor := driver()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusCompleted
		task.AssignedTo = &actor.ID
	})

	result, err := env.svc.Deliver(context.Background(), actor, task.ID, DeliverInput{})
	if err != nil {
		t.Fatalf("Deliver replay: %v", err)
	}
	if !result.AlreadyCompleted {
		t.Fatalf("expected AlreadyCompleted flag")
	}
	if len(env.ledger.entries) != 0 || len(env.scans.records) != 0 {
		t.Fatalf("replay must not write ledger or scan rows")
	}
}

func TestDeliver_OverrideDestination(t *testing.T) {
	env := newTestEnv(t)
	actor := driver()
	env.containers.warehouses["WH-002"] = &models.WarehouseContainer{
		ID:           "WH-002",
		Location:     "Hall B",
		QRCode:       "warehouse-WH-002",
		MaterialType: "paper",
		MaxCapacity:  200,
		QuantityUnit: enums.QuantityUnitKilogram,
		Status:       enums.ContainerStatusAtWarehouse,
		IsActive:     true,
	}
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusPickedUp
		task.AssignedTo = &actor.ID
		task.DeliveryContainerID = str("WH-001")
	})

	result, err := env.svc.Deliver(context.Background(), actor, task.ID, DeliverInput{
		DeliveryContainerID: str("WH-002"),
		Amount:              float(40),
	})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if result.Task.DeliveryContainerID == nil || *result.Task.DeliveryContainerID != "WH-002" {
		t.Fatalf("expected delivery container rebound to WH-002, got %v", result.Task.DeliveryContainerID)
	}
	if env.containers.warehouses["WH-002"].CurrentAmount != 40 {
		t.Fatalf("expected WH-002 at 40, got %v", env.containers.warehouses["WH-002"].CurrentAmount)
	}
	if env.containers.warehouses["WH-001"].CurrentAmount != 0 {
		t.Fatalf("original destination must stay untouched")
	}
}

func TestCancel_ReasonOptional(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, nil)

	cancelled, err := env.svc.Cancel(context.Background(), admin(), task.ID, "  ")
	if err != nil {
		t.Fatalf("Cancel without reason: %v", err)
	}
	if cancelled.Status != enums.TaskStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.CancellationReason != nil {
		t.Fatalf("blank reason must be stored as absent, got %q", *cancelled.CancellationReason)
	}
}

func TestCancel_AllowedForUnassignedDriver(t *testing.T) {
	env := newTestEnv(t)
	assignee := uuid.New()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusAccepted
		task.AssignedTo = &assignee
	})

	cancelled, err := env.svc.Cancel(context.Background(), driver(), task.ID, "wrong address")
	if err != nil {
		t.Fatalf("Cancel by other driver: %v", err)
	}
	if cancelled.Status != enums.TaskStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
}

func TestCancel_FromActiveState(t *testing.T) {
	env := newTestEnv(t)
	actor := driver()
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusInTransit
		task.AssignedTo = &actor.ID
	})

	cancelled, err := env.svc.Cancel(context.Background(), actor, task.ID, "customer closed")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != enums.TaskStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != "customer closed" {
		t.Fatalf("expected reason stored, got %v", cancelled.CancellationReason)
	}
}

func TestCancel_RejectedWhenTerminal(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusCompleted
	})

	_, err := env.svc.Cancel(context.Background(), admin(), task.ID, "too late")
	assertCode(t, err, pkgerrors.CodeInvalidTransition)

	stored := env.tasks.tasks[task.ID]
	if stored.Status != enums.TaskStatusCompleted {
		t.Fatalf("terminal task must stay COMPLETED, got %s", stored.Status)
	}
}

func TestDelete_DetachesHistory(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, nil)

	if err := env.svc.Delete(context.Background(), admin(), task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(env.tasks.nullified) != 1 || env.tasks.nullified[0] != task.ID {
		t.Fatalf("expected references nulled before delete")
	}
	if _, ok := env.tasks.tasks[task.ID]; ok {
		t.Fatalf("expected task removed")
	}
	if len(env.activity.entries) != 1 || env.activity.entries[0].TaskID != nil {
		t.Fatalf("deletion log must not reference the deleted task row")
	}
}

func TestDelete_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, nil)

	err := env.svc.Delete(context.Background(), driver(), task.ID)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestList_ScopesDriversToOwnTasks(t *testing.T) {
	env := newTestEnv(t)
	actor := driver()

	if _, err := env.svc.List(context.Background(), actor, ListQuery{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	filter := env.tasks.lastFilter
	if filter == nil || filter.AssignedTo == nil || *filter.AssignedTo != actor.ID {
		t.Fatalf("expected driver scope, got %+v", filter)
	}
	if filter.IncludeTerminal {
		t.Fatalf("terminal tasks must stay hidden by default")
	}

	if _, err := env.svc.List(context.Background(), admin(), ListQuery{ShowAll: true}); err != nil {
		t.Fatalf("List: %v", err)
	}
	filter = env.tasks.lastFilter
	if filter.AssignedTo != nil {
		t.Fatalf("admin list must not be scoped to an assignee")
	}
	if !filter.IncludeTerminal {
		t.Fatalf("show_all must include terminal tasks")
	}
}

func TestPatch_StripsGuardedFields(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, nil)

	_, err := env.svc.Patch(context.Background(), admin(), task.ID, map[string]any{
		"status": "COMPLETED",
		"notes":  "ring the back bell",
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if _, ok := env.tasks.lastUpdate["status"]; ok {
		t.Fatalf("status must never be patchable")
	}
	if env.tasks.lastUpdate["notes"] != "ring the back bell" {
		t.Fatalf("expected notes update to pass through, got %v", env.tasks.lastUpdate)
	}
}

func TestPatch_RejectedWhenTerminal(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, func(task *models.Task) {
		task.Status = enums.TaskStatusCancelled
	})

	_, err := env.svc.Patch(context.Background(), admin(), task.ID, map[string]any{"notes": "late edit"})
	assertCode(t, err, pkgerrors.CodeInvalidTransition)
}
