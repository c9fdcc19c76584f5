package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ramzi-kassab/floorman-api/internal/models"
)

// RetrievalMetricRepository persists pre-aggregated accuracy snapshots and
// exposes the raw counts the aggregator reads.
type RetrievalMetricRepository struct {
	db *sqlx.DB
}

// NewRetrievalMetricRepository constructs the repository.
func NewRetrievalMetricRepository(db *sqlx.DB) *RetrievalMetricRepository {
	return &RetrievalMetricRepository{db: db}
}

// Upsert replaces the metric row for (employee, period_type, period_start).
// Recomputing the same bucket overwrites the prior row, never duplicates it.
func (r *RetrievalMetricRepository) Upsert(ctx context.Context, metric *models.RetrievalMetric) error {
	if metric.ID == "" {
		metric.ID = uuid.NewString()
	}
	if metric.ComputedAt.IsZero() {
		metric.ComputedAt = time.Now().UTC()
	}
	const query = `INSERT INTO retrieval_metrics
	(id, employee_id, period_type, period_start, period_end, total_actions, retrieval_requests, accuracy_rate, computed_at)
	VALUES (:id, :employee_id, :period_type, :period_start, :period_end, :total_actions, :retrieval_requests, :accuracy_rate, :computed_at)
	ON CONFLICT (employee_id, period_type, period_start) DO UPDATE SET
	period_end = EXCLUDED.period_end,
	total_actions = EXCLUDED.total_actions,
	retrieval_requests = EXCLUDED.retrieval_requests,
	accuracy_rate = EXCLUDED.accuracy_rate,
	computed_at = EXCLUDED.computed_at`
	if _, err := r.db.NamedExecContext(ctx, query, metric); err != nil {
		return fmt.Errorf("upsert retrieval metric: %w", err)
	}
	return nil
}

// GetForPeriod fetches the stored metric for one bucket.
func (r *RetrievalMetricRepository) GetForPeriod(ctx context.Context, employeeID string, periodType models.MetricPeriod, periodStart time.Time) (*models.RetrievalMetric, error) {
	const query = `SELECT id, employee_id, period_type, period_start, period_end, total_actions, retrieval_requests, accuracy_rate, computed_at
	FROM retrieval_metrics WHERE employee_id = $1 AND period_type = $2 AND period_start = $3`
	var metric models.RetrievalMetric
	if err := r.db.GetContext(ctx, &metric, query, employeeID, periodType, periodStart); err != nil {
		return nil, err
	}
	return &metric, nil
}

// ListByEmployee returns stored metrics for an employee, newest bucket first.
func (r *RetrievalMetricRepository) ListByEmployee(ctx context.Context, employeeID string, periodType models.MetricPeriod, limit int) ([]models.RetrievalMetric, error) {
	if limit <= 0 || limit > 100 {
		limit = 24
	}
	const query = `SELECT id, employee_id, period_type, period_start, period_end, total_actions, retrieval_requests, accuracy_rate, computed_at
	FROM retrieval_metrics WHERE employee_id = $1 AND period_type = $2
	ORDER BY period_start DESC LIMIT $3`
	var metrics []models.RetrievalMetric
	if err := r.db.SelectContext(ctx, &metrics, query, employeeID, periodType, limit); err != nil {
		return nil, fmt.Errorf("list retrieval metrics: %w", err)
	}
	return metrics, nil
}

// CountEmployeeActions counts audit-logged actions inside the window. The
// audit trail is the employee's action history for accuracy purposes.
func (r *RetrievalMetricRepository) CountEmployeeActions(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(1) FROM audit_logs
	WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, employeeID, from, to); err != nil {
		return 0, fmt.Errorf("count employee actions: %w", err)
	}
	return count, nil
}
