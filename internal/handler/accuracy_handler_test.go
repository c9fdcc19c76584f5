package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramzi-kassab/floorman-api/internal/dto"
	"github.com/ramzi-kassab/floorman-api/internal/models"
	appErrors "github.com/ramzi-kassab/floorman-api/pkg/errors"
)

type fakeAccuracyService struct {
	summary *dto.AccuracySummary
	history []models.RetrievalMetric
	metric  *models.RetrievalMetric
	err     error

	lastPeriod models.MetricPeriod
}

func (f *fakeAccuracyService) GetEmployeeAccuracy(_ context.Context, _ string, period models.MetricPeriod) (*dto.AccuracySummary, error) {
	f.lastPeriod = period
	return f.summary, f.err
}

func (f *fakeAccuracyService) History(_ context.Context, _ string, period models.MetricPeriod, _ int) ([]models.RetrievalMetric, error) {
	f.lastPeriod = period
	return f.history, f.err
}

func (f *fakeAccuracyService) CalculateAndSaveMetrics(_ context.Context, _ string, period models.MetricPeriod, _ time.Time) (*models.RetrievalMetric, error) {
	f.lastPeriod = period
	return f.metric, f.err
}

func TestAccuracyHandlerGetDefaultsToMonthly(t *testing.T) {
	svc := &fakeAccuracyService{summary: &dto.AccuracySummary{
		EmployeeID:   "emp-1",
		PeriodType:   models.PeriodMonthly,
		AccuracyRate: 0.95,
	}}
	h := NewAccuracyHandler(svc)

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/accuracy/emp-1", "")
	c.Params = gin.Params{{Key: "employeeId", Value: "emp-1"}}
	authenticate(c, "emp-1", models.RoleTechnician)
	h.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PeriodMonthly, svc.lastPeriod)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), `"accuracyRate":0.95`)
}

func TestAccuracyHandlerGetRejectsUnknownPeriod(t *testing.T) {
	h := NewAccuracyHandler(&fakeAccuracyService{})

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/accuracy/emp-1?period=HOURLY", "")
	c.Params = gin.Params{{Key: "employeeId", Value: "emp-1"}}
	authenticate(c, "emp-1", models.RoleTechnician)
	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccuracyHandlerTechnicianScope(t *testing.T) {
	h := NewAccuracyHandler(&fakeAccuracyService{summary: &dto.AccuracySummary{}})

	// Technicians only see their own accuracy.
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/accuracy/emp-2", "")
	c.Params = gin.Params{{Key: "employeeId", Value: "emp-2"}}
	authenticate(c, "emp-1", models.RoleTechnician)
	h.Get(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrForbidden.Code, env.Error.Code)

	c, rec = newTestContext(t, http.MethodGet, "/api/v1/accuracy/emp-2", "")
	c.Params = gin.Params{{Key: "employeeId", Value: "emp-2"}}
	authenticate(c, "sup-1", models.RoleSupervisor)
	h.Get(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccuracyHandlerExportCSV(t *testing.T) {
	svc := &fakeAccuracyService{history: []models.RetrievalMetric{{
		EmployeeID:        "emp-1",
		PeriodType:        models.PeriodMonthly,
		PeriodStart:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:         time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		TotalActions:      40,
		RetrievalRequests: 4,
		AccuracyRate:      0.9,
	}}}
	h := NewAccuracyHandler(svc)

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/accuracy/emp-1/export?format=csv", "")
	c.Params = gin.Params{{Key: "employeeId", Value: "emp-1"}}
	authenticate(c, "emp-1", models.RoleTechnician)
	h.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "accuracy-emp-1-monthly.csv")
	body := rec.Body.String()
	assert.Contains(t, body, "period_start")
	assert.Contains(t, body, "2026-08-01")
	assert.Contains(t, body, "0.9000")
}

func TestAccuracyHandlerExportRejectsUnknownFormat(t *testing.T) {
	h := NewAccuracyHandler(&fakeAccuracyService{})

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/accuracy/emp-1/export?format=xlsx", "")
	c.Params = gin.Params{{Key: "employeeId", Value: "emp-1"}}
	authenticate(c, "emp-1", models.RoleTechnician)
	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccuracyHandlerRecompute(t *testing.T) {
	svc := &fakeAccuracyService{metric: &models.RetrievalMetric{
		EmployeeID: "emp-1",
		PeriodType: models.PeriodWeekly,
	}}
	h := NewAccuracyHandler(svc)

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/accuracy/emp-1/recompute?period=weekly", "")
	c.Params = gin.Params{{Key: "employeeId", Value: "emp-1"}}
	authenticate(c, "sup-1", models.RoleSupervisor)
	h.Recompute(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PeriodWeekly, svc.lastPeriod)
}
