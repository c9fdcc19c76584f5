package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ramzi-kassab/floorman-api/internal/models"
)

func TestRetrievalMetricRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewRetrievalMetricRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO retrieval_metrics")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	metric := &models.RetrievalMetric{
		EmployeeID:        "emp-1",
		PeriodType:        models.PeriodMonthly,
		PeriodStart:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:         time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		TotalActions:      50,
		RetrievalRequests: 5,
		AccuracyRate:      0.9,
	}
	require.NoError(t, repo.Upsert(context.Background(), metric))
	require.NotEmpty(t, metric.ID)
	require.False(t, metric.ComputedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrievalMetricRepositoryListByEmployee(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewRetrievalMetricRepository(db)
	rows := sqlmock.NewRows([]string{"id", "employee_id", "period_type", "period_start", "period_end", "total_actions", "retrieval_requests", "accuracy_rate", "computed_at"}).
		AddRow("metric-1", "emp-1", "MONTHLY", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), 50, 5, 0.9, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, employee_id, period_type")).
		WithArgs("emp-1", "MONTHLY", 12).
		WillReturnRows(rows)

	metrics, err := repo.ListByEmployee(context.Background(), "emp-1", models.PeriodMonthly, 12)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	require.InDelta(t, 0.9, metrics[0].AccuracyRate, 0.0001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrievalMetricRepositoryCountEmployeeActions(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewRetrievalMetricRepository(db)
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM audit_logs")).
		WithArgs("emp-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountEmployeeActions(context.Background(), "emp-1", from, to)
	require.NoError(t, err)
	require.Equal(t, 42, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
