package activity

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/lukasbrandt/containerflow-backend/pkg/db/models"
	dbtypes "github.com/lukasbrandt/containerflow-backend/pkg/db/types"
	"github.com/lukasbrandt/containerflow-backend/pkg/enums"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"github.com/lukasbrandt/containerflow-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service appends and reads the audit trail.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.ActivityLog, error)
	List(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error)
	ListPage(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error)
	ExportCSV(ctx context.Context, filter ListFilter, w io.Writer) error
}

// Page is one cursor-paginated slice of the audit trail.
type Page struct {
	Entries    []models.ActivityLog `json:"entries"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

type service struct {
	repo Repository
}

// AppendInput captures one audit trail entry.
type AppendInput struct {
	Type        enums.ActivityLogType
	Action      string
	Message     string
	UserID      *uuid.UUID
	TaskID      *uuid.UUID
	ContainerID *string
	ScanEventID *uuid.UUID
	Details     *string
	Metadata    dbtypes.JSONMap
}

// NewService wires an activity log service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.ActivityLog, error) {
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid activity log type %q", input.Type)
	}
	if input.Action == "" {
		return nil, fmt.Errorf("action is required")
	}
	if input.Message == "" {
		return nil, fmt.Errorf("message is required")
	}

	entry := &models.ActivityLog{
		Type:        input.Type,
		Action:      input.Action,
		Message:     input.Message,
		UserID:      input.UserID,
		TaskID:      input.TaskID,
		ContainerID: input.ContainerID,
		ScanEventID: input.ScanEventID,
		Details:     input.Details,
		Metadata:    input.Metadata,
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error) {
	return s.repo.List(ctx, filter)
}

// ListPage fetches one limit-plus-one slice and emits a cursor when more
// entries remain.
func (s *service) ListPage(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Cursor = cursor

	limit := pagination.NormalizeLimit(params.Limit)
	filter.Limit = pagination.LimitWithBuffer(params.Limit)

	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &Page{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.Timestamp,
			ID:        last.ID,
		})
	}
	return page, nil
}

var csvHeader = []string{"timestamp", "type", "action", "message", "user_id", "task_id", "container_id", "details"}

// ExportCSV streams the filtered audit trail as CSV.
func (s *service) ExportCSV(ctx context.Context, filter ListFilter, w io.Writer) error {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, entry := range entries {
		record := []string{
			entry.Timestamp.Format(time.RFC3339),
			string(entry.Type),
			entry.Action,
			entry.Message,
			uuidOrEmpty(entry.UserID),
			uuidOrEmpty(entry.TaskID),
			stringOrEmpty(entry.ContainerID),
			stringOrEmpty(entry.Details),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func uuidOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
