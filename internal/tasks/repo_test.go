package tasks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTasksTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	tasks := `
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  title TEXT,
  description TEXT,
  container_id TEXT NOT NULL,
  delivery_container_id TEXT,
  created_by TEXT,
  assigned_to TEXT,
  scheduled_time DATETIME,
  planned_quantity REAL,
  planned_quantity_unit TEXT NOT NULL DEFAULT 'kg',
  priority TEXT NOT NULL DEFAULT 'normal',
  material_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'OPEN',
  assigned_at DATETIME,
  accepted_at DATETIME,
  picked_up_at DATETIME,
  in_transit_at DATETIME,
  delivered_at DATETIME,
  completed_at DATETIME,
  cancelled_at DATETIME,
  pickup_location TEXT,
  delivery_location TEXT,
  actual_quantity REAL,
  actual_quantity_unit TEXT NOT NULL DEFAULT 'kg',
  notes TEXT,
  cancellation_reason TEXT,
  estimated_amount REAL,
  created_at DATETIME,
  updated_at DATETIME
);`
	scanEvents := `
CREATE TABLE IF NOT EXISTS scan_events (
  id TEXT PRIMARY KEY,
  container_id TEXT NOT NULL,
  container_type TEXT NOT NULL,
  task_id TEXT,
  scanned_by_user_id TEXT NOT NULL,
  scanned_at DATETIME,
  scan_context TEXT NOT NULL,
  location_type TEXT NOT NULL,
  location_details TEXT,
  geo_location TEXT,
  scan_result TEXT NOT NULL DEFAULT 'SUCCESS',
  result_message TEXT,
  extra_data TEXT,
  created_at DATETIME
);`
	activityLogs := `
CREATE TABLE IF NOT EXISTS activity_logs (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  action TEXT NOT NULL,
  message TEXT NOT NULL,
  user_id TEXT,
  task_id TEXT,
  container_id TEXT,
  scan_event_id TEXT,
  details TEXT,
  metadata TEXT,
  timestamp DATETIME,
  created_at DATETIME
);`
	fillHistory := `
CREATE TABLE IF NOT EXISTS fill_history (
  id TEXT PRIMARY KEY,
  warehouse_container_id TEXT NOT NULL,
  amount_added REAL NOT NULL,
  quantity_unit TEXT NOT NULL DEFAULT 'kg',
  task_id TEXT,
  recorded_by_user_id TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(tasks).Error)
	require.NoError(t, db.Exec(scanEvents).Error)
	require.NoError(t, db.Exec(activityLogs).Error)
	require.NoError(t, db.Exec(fillHistory).Error)
	return db
}

func createTask(t *testing.T, db *gorm.DB, status enums.TaskStatus, assignee *uuid.UUID) *models.Task {
	t.Helper()

	task := &models.Task{
		ID:           uuid.New(),
		ContainerID:  "CC-100",
		MaterialType: "paper",
		Status:       status,
		AssignedTo:   assignee,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func TestRepositoryList_hidesTerminalByDefault(t *testing.T) {
	db := setupTasksTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	assignee := uuid.New()
	open := createTask(t, db, enums.TaskStatusOpen, &assignee)
	completed := createTask(t, db, enums.TaskStatusCompleted, &assignee)
	cancelled := createTask(t, db, enums.TaskStatusCancelled, &assignee)

	got, err := repo.List(ctx, ListFilter{AssignedTo: &assignee})
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(got))
	for _, task := range got {
		ids[task.ID] = true
	}
	assert.True(t, ids[open.ID])
	assert.False(t, ids[completed.ID])
	assert.False(t, ids[cancelled.ID])

	all, err := repo.List(ctx, ListFilter{AssignedTo: &assignee, IncludeTerminal: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepositoryList_statusFilter(t *testing.T) {
	db := setupTasksTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	assignee := uuid.New()
	createTask(t, db, enums.TaskStatusOpen, &assignee)
	accepted := createTask(t, db, enums.TaskStatusAccepted, &assignee)

	status := enums.TaskStatusAccepted
	got, err := repo.List(ctx, ListFilter{AssignedTo: &assignee, Status: &status})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, accepted.ID, got[0].ID)
}

func TestRepositoryUpdate(t *testing.T) {
	db := setupTasksTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	task := createTask(t, db, enums.TaskStatusOpen, nil)
	require.NoError(t, repo.Update(ctx, task.ID, map[string]any{"notes": "gate code 4711"}))

	reloaded, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Notes)
	assert.Equal(t, "gate code 4711", *reloaded.Notes)
}

func TestRepositoryNullifyReferences(t *testing.T) {
	db := setupTasksTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	task := createTask(t, db, enums.TaskStatusCompleted, nil)

	scan := &models.ScanEvent{
		ID:              uuid.New(),
		ContainerID:     "CC-100",
		ContainerType:   enums.ContainerKindCustomer,
		TaskID:          &task.ID,
		ScannedByUserID: uuid.New(),
		ScanContext:     enums.ScanContextTaskPickup,
		LocationType:    enums.LocationTypeCustomer,
		ScanResult:      enums.ScanResultSuccess,
	}
	require.NoError(t, db.Create(scan).Error)

	log := &models.ActivityLog{
		ID:      uuid.New(),
		Type:    enums.ActivityTaskCompleted,
		Action:  "task_completed",
		Message: "done",
		TaskID:  &task.ID,
	}
	require.NoError(t, db.Create(log).Error)

	fill := &models.FillHistory{
		ID:                   uuid.New(),
		WarehouseContainerID: "WH-100",
		AmountAdded:          25,
		QuantityUnit:         enums.QuantityUnitKilogram,
		TaskID:               &task.ID,
	}
	require.NoError(t, db.Create(fill).Error)

	require.NoError(t, repo.NullifyReferences(ctx, task.ID))
	require.NoError(t, repo.Delete(ctx, task.ID))

	_, err := repo.FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var keptScan models.ScanEvent
	require.NoError(t, db.First(&keptScan, "id = ?", scan.ID).Error)
	assert.Nil(t, keptScan.TaskID)

	var keptLog models.ActivityLog
	require.NoError(t, db.First(&keptLog, "id = ?", log.ID).Error)
	assert.Nil(t, keptLog.TaskID)

	var keptFill models.FillHistory
	require.NoError(t, db.First(&keptFill, "id = ?", fill.ID).Error)
	assert.Nil(t, keptFill.TaskID)
}
