package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramzi-kassab/floorman-api/internal/models"
	appErrors "github.com/ramzi-kassab/floorman-api/pkg/errors"
)

type stubMetricStore struct {
	actions  map[string]int
	history  []models.RetrievalMetric
	upserted []*models.RetrievalMetric
}

func (s *stubMetricStore) Upsert(_ context.Context, metric *models.RetrievalMetric) error {
	s.upserted = append(s.upserted, metric)
	return nil
}

func (s *stubMetricStore) ListByEmployee(_ context.Context, _ string, _ models.MetricPeriod, _ int) ([]models.RetrievalMetric, error) {
	return s.history, nil
}

func (s *stubMetricStore) CountEmployeeActions(_ context.Context, employeeID string, _, _ time.Time) (int, error) {
	return s.actions[employeeID], nil
}

type stubRequestCounter struct {
	counts map[string]int
}

func (s *stubRequestCounter) CountByEmployee(_ context.Context, employeeID string, _, _ time.Time) (int, error) {
	return s.counts[employeeID], nil
}

func TestPeriodBounds(t *testing.T) {
	// 2026-08-27 is a Thursday.
	ref := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		period models.MetricPeriod
		start  time.Time
		end    time.Time
	}{
		{models.PeriodDaily,
			time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)},
		{models.PeriodWeekly,
			time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)},
		{models.PeriodMonthly,
			time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		{models.PeriodQuarterly,
			time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
		{models.PeriodYearly,
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(string(tc.period), func(t *testing.T) {
			start, end, err := PeriodBounds(tc.period, ref)
			require.NoError(t, err)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}

	t.Run("week containing a Monday midnight", func(t *testing.T) {
		monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
		start, _, err := PeriodBounds(models.PeriodWeekly, monday)
		require.NoError(t, err)
		assert.Equal(t, monday, start)
	})

	t.Run("unsupported period", func(t *testing.T) {
		_, _, err := PeriodBounds(models.MetricPeriod("HOURLY"), ref)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})
}

func TestAccuracyRate(t *testing.T) {
	assert.InDelta(t, 0.9, accuracyRate(50, 5), 0.0001)
	assert.InDelta(t, 1.0, accuracyRate(50, 0), 0.0001)
	// No recorded actions scores a full 1.0 rather than dividing by zero.
	assert.InDelta(t, 1.0, accuracyRate(0, 3), 0.0001)
	// More requests than actions clamps at zero.
	assert.InDelta(t, 0.0, accuracyRate(2, 5), 0.0001)
}

func TestAccuracyServiceCalculateEmployeeAccuracy(t *testing.T) {
	metrics := &stubMetricStore{actions: map[string]int{"emp-1": 40}}
	requests := &stubRequestCounter{counts: map[string]int{"emp-1": 4}}
	svc := NewAccuracyService(metrics, requests, nil)

	ref := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	summary, err := svc.CalculateEmployeeAccuracy(context.Background(), "emp-1", models.PeriodMonthly, ref)
	require.NoError(t, err)

	assert.Equal(t, "emp-1", summary.EmployeeID)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), summary.PeriodStart)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), summary.PeriodEnd)
	assert.Equal(t, 40, summary.TotalActions)
	assert.Equal(t, 4, summary.RetrievalRequests)
	assert.InDelta(t, 0.9, summary.AccuracyRate, 0.0001)
}

func TestAccuracyServiceCalculateAndSaveMetrics(t *testing.T) {
	metrics := &stubMetricStore{actions: map[string]int{"emp-1": 10}}
	requests := &stubRequestCounter{counts: map[string]int{"emp-1": 1}}
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	svc := NewAccuracyService(metrics, requests, nil,
		WithAccuracyClock(func() time.Time { return now }))

	metric, err := svc.CalculateAndSaveMetrics(context.Background(), "emp-1", models.PeriodWeekly, now)
	require.NoError(t, err)

	require.Len(t, metrics.upserted, 1)
	assert.Equal(t, models.PeriodWeekly, metric.PeriodType)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), metric.PeriodStart)
	assert.InDelta(t, 0.9, metric.AccuracyRate, 0.0001)
	assert.Equal(t, now, metric.ComputedAt)

	// Recomputing the same bucket targets the same key, the upsert replaces it.
	again, err := svc.CalculateAndSaveMetrics(context.Background(), "emp-1", models.PeriodWeekly, now)
	require.NoError(t, err)
	assert.Equal(t, metric.PeriodStart, again.PeriodStart)
	require.Len(t, metrics.upserted, 2)
}

func TestAccuracyServiceRecomputeEmployee(t *testing.T) {
	metrics := &stubMetricStore{actions: map[string]int{"emp-1": 5}}
	requests := &stubRequestCounter{counts: map[string]int{}}
	svc := NewAccuracyService(metrics, requests, nil)

	require.NoError(t, svc.RecomputeEmployee(context.Background(), "emp-1"))
	require.Len(t, metrics.upserted, len(models.AllMetricPeriods))

	seen := make(map[models.MetricPeriod]bool)
	for _, metric := range metrics.upserted {
		seen[metric.PeriodType] = true
	}
	for _, period := range models.AllMetricPeriods {
		assert.True(t, seen[period], "missing bucket %s", period)
	}
}

func TestAccuracyServiceHistoryValidatesPeriod(t *testing.T) {
	svc := NewAccuracyService(&stubMetricStore{}, &stubRequestCounter{}, nil)

	_, err := svc.History(context.Background(), "emp-1", models.MetricPeriod("HOURLY"), 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
