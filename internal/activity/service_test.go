package activity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	"github.com/lukasbrandt/containerflow-backend/pkg/pagination"
	"gorm.io/gorm"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.ActivityLog) error
	listFn   func(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) List(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, nil
}

func TestService_Append(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.ActivityLog
	repo.createFn = func(ctx context.Context, entry *models.ActivityLog) error {
		created = entry
		return nil
	}

	taskID := uuid.New()
	got, err := svc.Append(context.Background(), nil, AppendInput{
		Type:    enums.ActivityTaskCreated,
		Action:  "task_created",
		Message: "Task created",
		TaskID:  &taskID,
	})
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if created == nil || got != created {
		t.Fatal("expected entry to be created and returned")
	}
	if created.Type != enums.ActivityTaskCreated || created.TaskID == nil || *created.TaskID != taskID {
		t.Fatalf("unexpected entry data: %+v", created)
	}
}

func TestService_AppendValidation(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})

	cases := []struct {
		name  string
		input AppendInput
	}{
		{"bad type", AppendInput{Type: "PARTY", Action: "a", Message: "m"}},
		{"missing action", AppendInput{Type: enums.ActivitySystemEvent, Message: "m"}},
		{"missing message", AppendInput{Type: enums.ActivitySystemEvent, Action: "a"}},
	}

	for _, tc := range cases {
		if _, err := svc.Append(context.Background(), nil, tc.input); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestService_ExportCSV(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepository{
		listFn: func(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error) {
			return []models.ActivityLog{
				{
					Type:      enums.ActivityTaskCompleted,
					Action:    "task_completed",
					Message:   "Task completed, 50 kg delivered",
					UserID:    &userID,
					Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
				},
			}, nil
		},
	}
	svc, _ := NewService(repo)

	var buf strings.Builder
	if err := svc.ExportCSV(context.Background(), ListFilter{}, &buf); err != nil {
		t.Fatalf("ExportCSV error: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,type,action") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "TASK_COMPLETED") || !strings.Contains(lines[1], "2025-03-01T12:00:00Z") {
		t.Fatalf("unexpected row: %s", lines[1])
	}
	if !strings.Contains(lines[1], `"Task completed, 50 kg delivered"`) {
		t.Fatalf("expected message with comma to be quoted: %s", lines[1])
	}
}

func TestService_ListPage(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := make([]models.ActivityLog, 0, 4)
	for i := 0; i < 4; i++ {
		entries = append(entries, models.ActivityLog{
			ID:        uuid.New(),
			Type:      enums.ActivitySystemEvent,
			Action:    "system_event",
			Message:   "event",
			Timestamp: base.Add(-time.Duration(i) * time.Minute),
		})
	}

	var gotFilter ListFilter
	repo := &fakeRepository{
		listFn: func(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error) {
			gotFilter = filter
			if filter.Limit < len(entries) {
				return entries[:filter.Limit], nil
			}
			return entries, nil
		},
	}
	svc, _ := NewService(repo)

	page, err := svc.ListPage(context.Background(), ListFilter{}, pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("ListPage error: %v", err)
	}
	if gotFilter.Limit != 4 {
		t.Fatalf("expected limit-plus-one query, got %d", gotFilter.Limit)
	}
	if len(page.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(page.Entries))
	}
	if page.NextCursor == "" {
		t.Fatal("expected a next cursor")
	}

	cursor, err := pagination.ParseCursor(page.NextCursor)
	if err != nil {
		t.Fatalf("cursor does not round-trip: %v", err)
	}
	last := page.Entries[2]
	if !cursor.CreatedAt.Equal(last.Timestamp) || cursor.ID != last.ID {
		t.Fatalf("cursor points at wrong entry: %+v", cursor)
	}
}

func TestService_ListPageLastPage(t *testing.T) {
	repo := &fakeRepository{
		listFn: func(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error) {
			return []models.ActivityLog{{ID: uuid.New(), Timestamp: time.Now()}}, nil
		},
	}
	svc, _ := NewService(repo)

	page, err := svc.ListPage(context.Background(), ListFilter{}, pagination.Params{Limit: 25})
	if err != nil {
		t.Fatalf("ListPage error: %v", err)
	}
	if len(page.Entries) != 1 || page.NextCursor != "" {
		t.Fatalf("expected final page without cursor, got %+v", page)
	}
}

func TestService_ListPageBadCursor(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})
	if _, err := svc.ListPage(context.Background(), ListFilter{}, pagination.Params{Cursor: "!!!"}); err == nil {
		t.Fatal("expected invalid cursor error")
	}
}
