package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/lukasbrandt/containerflow-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	// Containers at or above this fill ratio count as critical.
	criticalFillRatio = 0.8

	taskStatusCountsSQL = `
SELECT status, COUNT(*) AS count
FROM tasks
GROUP BY status
`

	activeDriversSQL = `
SELECT COUNT(*) AS count
FROM users
WHERE role = 'DRIVER' AND is_active = TRUE
`

	containerTotalsSQL = `
SELECT
  COUNT(*) AS total_containers,
  COALESCE(SUM(max_capacity), 0) AS total_capacity,
  COALESCE(SUM(current_amount), 0) AS total_amount,
  COUNT(*) FILTER (WHERE max_capacity > 0 AND current_amount / max_capacity >= ?) AS critical_containers
FROM warehouse_containers
WHERE is_active = TRUE
`

	fillTrendSQL = `
SELECT
  DATE(created_at) AS day,
  COALESCE(SUM(amount_added), 0) AS amount,
  COUNT(*) AS deliveries
FROM fill_history
WHERE created_at >= ? AND amount_added > 0
GROUP BY DATE(created_at)
ORDER BY day ASC
`

	fillLevelsSQL = `
SELECT
  id AS container_id,
  material_type,
  quantity_unit,
  current_amount,
  max_capacity
FROM warehouse_containers
WHERE is_active = TRUE
ORDER BY CASE WHEN max_capacity > 0 THEN current_amount / max_capacity ELSE 0 END DESC
`

	materialBreakdownSQL = `
SELECT
  material_type,
  COALESCE(SUM(current_amount), 0) AS amount,
  COALESCE(SUM(max_capacity), 0) AS capacity
FROM warehouse_containers
WHERE is_active = TRUE
GROUP BY material_type
ORDER BY amount DESC
`

	driverPerformanceSQL = `
SELECT
  u.id AS driver_id,
  u.name AS driver_name,
  COUNT(t.id) AS total_tasks,
  COUNT(t.id) FILTER (WHERE t.status = 'COMPLETED') AS completed_tasks,
  COUNT(t.id) FILTER (WHERE t.status = 'CANCELLED') AS cancelled_tasks,
  COALESCE(SUM(t.actual_quantity) FILTER (WHERE t.status = 'COMPLETED'), 0) AS delivered_amount,
  AVG(EXTRACT(EPOCH FROM (t.completed_at - t.accepted_at))) FILTER (
    WHERE t.status = 'COMPLETED' AND t.accepted_at IS NOT NULL AND t.completed_at IS NOT NULL
  ) AS avg_completion_seconds
FROM users u
LEFT JOIN tasks t ON t.assigned_to = u.id AND t.created_at >= ?
WHERE u.role = 'DRIVER' AND u.is_active = TRUE
GROUP BY u.id, u.name
ORDER BY completed_tasks DESC, u.name ASC
`

	driverStatsSQL = `
SELECT
  u.id AS driver_id,
  u.name AS driver_name,
  COUNT(t.id) AS total_tasks,
  COUNT(t.id) FILTER (WHERE t.status = 'COMPLETED') AS completed_tasks,
  COUNT(t.id) FILTER (WHERE t.status = 'CANCELLED') AS cancelled_tasks,
  COALESCE(SUM(t.actual_quantity) FILTER (WHERE t.status = 'COMPLETED'), 0) AS delivered_amount,
  AVG(EXTRACT(EPOCH FROM (t.completed_at - t.accepted_at))) FILTER (
    WHERE t.status = 'COMPLETED' AND t.accepted_at IS NOT NULL AND t.completed_at IS NOT NULL
  ) AS avg_completion_seconds
FROM users u
LEFT JOIN tasks t ON t.assigned_to = u.id AND t.created_at >= ?
WHERE u.id = ?
GROUP BY u.id, u.name
`
)

// Service answers the dashboard and reporting queries. All figures are
// computed on read; nothing here mutates state.
type Service interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	FillTrend(ctx context.Context, days int) (*FillTrendReport, error)
	DriverPerformance(ctx context.Context, since time.Time) ([]DriverPerformance, error)
	DriverStats(ctx context.Context, driverID uuid.UUID, since time.Time) (*DriverPerformance, error)
}

type service struct {
	db *gorm.DB
}

// DashboardStats is the aggregate snapshot behind the admin dashboard.
type DashboardStats struct {
	TasksByStatus      map[string]int64 `json:"tasks_by_status"`
	ActiveDrivers      int64            `json:"active_drivers"`
	TotalContainers    int64            `json:"total_containers"`
	CriticalContainers int64            `json:"critical_containers"`
	TotalCapacity      float64          `json:"total_capacity"`
	TotalAmount        float64          `json:"total_amount"`
}

// FillTrendPoint is one day of warehouse intake.
type FillTrendPoint struct {
	Day        time.Time `json:"day"`
	Amount     float64   `json:"amount"`
	Deliveries int64     `json:"deliveries"`
}

// ContainerLevel is the current fill state of one warehouse container.
type ContainerLevel struct {
	ContainerID   string  `json:"container_id"`
	MaterialType  string  `json:"material_type"`
	QuantityUnit  string  `json:"quantity_unit"`
	CurrentAmount float64 `json:"current_amount"`
	MaxCapacity   float64 `json:"max_capacity"`
}

// MaterialBreakdown sums stock and capacity per material.
type MaterialBreakdown struct {
	MaterialType string  `json:"material_type"`
	Amount       float64 `json:"amount"`
	Capacity     float64 `json:"capacity"`
}

// FillTrendReport bundles the intake trend with the current warehouse state.
type FillTrendReport struct {
	Points        []FillTrendPoint    `json:"points"`
	CurrentLevels []ContainerLevel    `json:"current_levels"`
	ByMaterial    []MaterialBreakdown `json:"by_material"`
}

// DriverPerformance summarizes one driver's recent work.
type DriverPerformance struct {
	DriverID             uuid.UUID `json:"driver_id"`
	DriverName           string    `json:"driver_name"`
	TotalTasks           int64     `json:"total_tasks"`
	CompletedTasks       int64     `json:"completed_tasks"`
	CancelledTasks       int64     `json:"cancelled_tasks"`
	DeliveredAmount      float64   `json:"delivered_amount"`
	AvgCompletionSeconds *float64  `json:"avg_completion_seconds,omitempty"`
	CompletionRate       float64   `json:"completion_rate"`
}

func (d *DriverPerformance) fillCompletionRate() {
	if d.TotalTasks > 0 {
		d.CompletionRate = float64(d.CompletedTasks) / float64(d.TotalTasks)
	}
}

// NewService wires the reporting service directly on the database. There is
// no repository layer: every query is a one-shot aggregate.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle required")
	}
	return &service{db: db}, nil
}

func (s *service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var statusRows []struct {
		Status string
		Count  int64
	}
	if err := s.db.WithContext(ctx).Raw(taskStatusCountsSQL).Scan(&statusRows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count tasks by status")
	}

	stats := &DashboardStats{TasksByStatus: make(map[string]int64, len(statusRows))}
	for _, row := range statusRows {
		stats.TasksByStatus[row.Status] = row.Count
	}

	if err := s.db.WithContext(ctx).Raw(activeDriversSQL).Scan(&stats.ActiveDrivers).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active drivers")
	}

	var totals struct {
		TotalContainers    int64
		TotalCapacity      float64
		TotalAmount        float64
		CriticalContainers int64
	}
	if err := s.db.WithContext(ctx).Raw(containerTotalsSQL, criticalFillRatio).Scan(&totals).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate container totals")
	}
	stats.TotalContainers = totals.TotalContainers
	stats.TotalCapacity = totals.TotalCapacity
	stats.TotalAmount = totals.TotalAmount
	stats.CriticalContainers = totals.CriticalContainers
	return stats, nil
}

func (s *service) FillTrend(ctx context.Context, days int) (*FillTrendReport, error) {
	if days <= 0 {
		days = 7
	}
	if days > 365 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trend window too large")
	}
	since := time.Now().UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	report := &FillTrendReport{}
	if err := s.db.WithContext(ctx).Raw(fillTrendSQL, since).Scan(&report.Points).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate fill trend")
	}
	if err := s.db.WithContext(ctx).Raw(fillLevelsSQL).Scan(&report.CurrentLevels).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fill levels")
	}
	if err := s.db.WithContext(ctx).Raw(materialBreakdownSQL).Scan(&report.ByMaterial).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate material breakdown")
	}
	return report, nil
}

func (s *service) DriverPerformance(ctx context.Context, since time.Time) ([]DriverPerformance, error) {
	var rows []DriverPerformance
	if err := s.db.WithContext(ctx).Raw(driverPerformanceSQL, since).Scan(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate driver performance")
	}
	for i := range rows {
		rows[i].fillCompletionRate()
	}
	return rows, nil
}

func (s *service) DriverStats(ctx context.Context, driverID uuid.UUID, since time.Time) (*DriverPerformance, error) {
	var row DriverPerformance
	result := s.db.WithContext(ctx).Raw(driverStatsSQL, since, driverID).Scan(&row)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "aggregate driver stats")
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
	}
	row.fillCompletionRate()
	return &row, nil
}
