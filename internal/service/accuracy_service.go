package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ramzi-kassab/floorman-api/internal/dto"
	"github.com/ramzi-kassab/floorman-api/internal/models"
	appErrors "github.com/ramzi-kassab/floorman-api/pkg/errors"
)

type metricStore interface {
	Upsert(ctx context.Context, metric *models.RetrievalMetric) error
	ListByEmployee(ctx context.Context, employeeID string, periodType models.MetricPeriod, limit int) ([]models.RetrievalMetric, error)
	CountEmployeeActions(ctx context.Context, employeeID string, from, to time.Time) (int, error)
}

type requestCounter interface {
	CountByEmployee(ctx context.Context, employeeID string, from, to time.Time) (int, error)
}

// AccuracyService computes and serves work accuracy metrics. Accuracy for a
// window is 1 - (retrieval requests / total actions); an employee with no
// recorded actions scores a full 1.0 rather than dividing by zero.
type AccuracyService struct {
	metrics  metricStore
	requests requestCounter
	cache    *CacheService
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// AccuracyServiceOption configures the service.
type AccuracyServiceOption func(*AccuracyService)

// WithAccuracyCache attaches the read-through cache.
func WithAccuracyCache(cache *CacheService, ttl time.Duration) AccuracyServiceOption {
	return func(s *AccuracyService) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithAccuracyClock overrides the time source, used by period bound tests.
func WithAccuracyClock(now func() time.Time) AccuracyServiceOption {
	return func(s *AccuracyService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAccuracyService constructs the service with defaults.
func NewAccuracyService(metrics metricStore, requests requestCounter, logger *zap.Logger, opts ...AccuracyServiceOption) *AccuracyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AccuracyService{
		metrics:  metrics,
		requests: requests,
		logger:   logger,
		cacheTTL: 10 * time.Minute,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// PeriodBounds returns the half-open [start, end) window containing ref for
// the given bucket type. Weeks start on Monday; all bounds are UTC.
func PeriodBounds(period models.MetricPeriod, ref time.Time) (time.Time, time.Time, error) {
	ref = ref.UTC()
	year, month, day := ref.Date()
	switch period {
	case models.PeriodDaily:
		start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 0, 1), nil
	case models.PeriodWeekly:
		start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		offset := (int(start.Weekday()) + 6) % 7
		start = start.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7), nil
	case models.PeriodMonthly:
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), nil
	case models.PeriodQuarterly:
		quarterMonth := time.Month(((int(month)-1)/3)*3 + 1)
		start := time.Date(year, quarterMonth, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 3, 0), nil
	case models.PeriodYearly:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported period type: %s", period))
	}
}

// CalculateEmployeeAccuracy computes the summary for the bucket containing ref
// straight from the audit trail and request counts, bypassing stored metrics.
func (s *AccuracyService) CalculateEmployeeAccuracy(ctx context.Context, employeeID string, period models.MetricPeriod, ref time.Time) (*dto.AccuracySummary, error) {
	start, end, err := PeriodBounds(period, ref)
	if err != nil {
		return nil, err
	}
	actions, err := s.metrics.CountEmployeeActions(ctx, employeeID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count employee actions")
	}
	requests, err := s.requests.CountByEmployee(ctx, employeeID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count retrieval requests")
	}
	return &dto.AccuracySummary{
		EmployeeID:        employeeID,
		PeriodType:        period,
		PeriodStart:       start,
		PeriodEnd:         end,
		TotalActions:      actions,
		RetrievalRequests: requests,
		AccuracyRate:      accuracyRate(actions, requests),
	}, nil
}

// GetEmployeeAccuracy returns the current bucket's summary, served from cache
// when available.
func (s *AccuracyService) GetEmployeeAccuracy(ctx context.Context, employeeID string, period models.MetricPeriod) (*dto.AccuracySummary, error) {
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported period type: %s", period))
	}
	now := s.now()
	start, _, err := PeriodBounds(period, now)
	if err != nil {
		return nil, err
	}
	key := accuracyCacheKey(employeeID, period, start)
	if s.cache != nil {
		var cached dto.AccuracySummary
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}
	summary, err := s.CalculateEmployeeAccuracy(ctx, employeeID, period, now)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache accuracy summary", zap.String("employee_id", employeeID), zap.Error(err))
		}
	}
	return summary, nil
}

// History returns stored metric rows for an employee, newest bucket first.
func (s *AccuracyService) History(ctx context.Context, employeeID string, period models.MetricPeriod, limit int) ([]models.RetrievalMetric, error) {
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported period type: %s", period))
	}
	rows, err := s.metrics.ListByEmployee(ctx, employeeID, period, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accuracy history")
	}
	return rows, nil
}

// CalculateAndSaveMetrics recomputes the bucket containing ref and upserts the
// stored row. Re-running the same bucket replaces the prior row.
func (s *AccuracyService) CalculateAndSaveMetrics(ctx context.Context, employeeID string, period models.MetricPeriod, ref time.Time) (*models.RetrievalMetric, error) {
	summary, err := s.CalculateEmployeeAccuracy(ctx, employeeID, period, ref)
	if err != nil {
		return nil, err
	}
	metric := &models.RetrievalMetric{
		EmployeeID:        summary.EmployeeID,
		PeriodType:        summary.PeriodType,
		PeriodStart:       summary.PeriodStart,
		PeriodEnd:         summary.PeriodEnd,
		TotalActions:      summary.TotalActions,
		RetrievalRequests: summary.RetrievalRequests,
		AccuracyRate:      summary.AccuracyRate,
		ComputedAt:        s.now(),
	}
	if err := s.metrics.Upsert(ctx, metric); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save accuracy metric")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, fmt.Sprintf("accuracy:%s:*", employeeID)); err != nil {
			s.logger.Warn("failed to invalidate accuracy cache", zap.String("employee_id", employeeID), zap.Error(err))
		}
	}
	return metric, nil
}

// RecomputeEmployee refreshes every bucket type for one employee.
func (s *AccuracyService) RecomputeEmployee(ctx context.Context, employeeID string) error {
	now := s.now()
	for _, period := range models.AllMetricPeriods {
		if _, err := s.CalculateAndSaveMetrics(ctx, employeeID, period, now); err != nil {
			return err
		}
	}
	return nil
}

func accuracyRate(actions, requests int) float64 {
	if actions <= 0 {
		return 1.0
	}
	rate := 1.0 - float64(requests)/float64(actions)
	if rate < 0 {
		return 0
	}
	return rate
}

func accuracyCacheKey(employeeID string, period models.MetricPeriod, start time.Time) string {
	return fmt.Sprintf("accuracy:%s:%s:%s", employeeID, period, start.Format("2006-01-02"))
}
