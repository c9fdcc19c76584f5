package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ramzi-kassab/floorman-api/internal/dto"
	"github.com/ramzi-kassab/floorman-api/internal/models"
	appErrors "github.com/ramzi-kassab/floorman-api/pkg/errors"
	"github.com/ramzi-kassab/floorman-api/pkg/export"
	"github.com/ramzi-kassab/floorman-api/pkg/response"
)

type accuracyService interface {
	GetEmployeeAccuracy(ctx context.Context, employeeID string, period models.MetricPeriod) (*dto.AccuracySummary, error)
	History(ctx context.Context, employeeID string, period models.MetricPeriod, limit int) ([]models.RetrievalMetric, error)
	CalculateAndSaveMetrics(ctx context.Context, employeeID string, period models.MetricPeriod, ref time.Time) (*models.RetrievalMetric, error)
}

// AccuracyHandler serves work accuracy metrics and their exports.
type AccuracyHandler struct {
	service accuracyService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewAccuracyHandler constructs the handler.
func NewAccuracyHandler(service accuracyService) *AccuracyHandler {
	return &AccuracyHandler{
		service: service,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// Get godoc
// @Summary Current accuracy for an employee
// @Tags Accuracy
// @Produce json
// @Param employeeId path string true "Employee ID"
// @Param period query string false "Period type, default MONTHLY"
// @Success 200 {object} response.Envelope
// @Router /accuracy/{employeeId} [get]
func (h *AccuracyHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "accuracy service not configured"))
		return
	}
	employeeID, period, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.service.GetEmployeeAccuracy(c.Request.Context(), employeeID, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// History godoc
// @Summary Stored accuracy history for an employee
// @Tags Accuracy
// @Produce json
// @Param employeeId path string true "Employee ID"
// @Param period query string false "Period type, default MONTHLY"
// @Param limit query int false "Bucket count"
// @Success 200 {object} response.Envelope
// @Router /accuracy/{employeeId}/history [get]
func (h *AccuracyHandler) History(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "accuracy service not configured"))
		return
	}
	employeeID, period, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
			limit = parsed
		}
	}
	history, err := h.service.History(c.Request.Context(), employeeID, period, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Recompute godoc
// @Summary Recompute and store the current bucket for an employee
// @Tags Accuracy
// @Produce json
// @Param employeeId path string true "Employee ID"
// @Param period query string false "Period type, default MONTHLY"
// @Success 200 {object} response.Envelope
// @Router /accuracy/{employeeId}/recompute [post]
func (h *AccuracyHandler) Recompute(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "accuracy service not configured"))
		return
	}
	employeeID, period, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	metric, err := h.service.CalculateAndSaveMetrics(c.Request.Context(), employeeID, period, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, metric, nil)
}

// Export godoc
// @Summary Export accuracy history as CSV or PDF
// @Tags Accuracy
// @Produce text/csv
// @Param employeeId path string true "Employee ID"
// @Param period query string false "Period type, default MONTHLY"
// @Param format query string false "csv or pdf, default csv"
// @Success 200 {file} file
// @Router /accuracy/{employeeId}/export [get]
func (h *AccuracyHandler) Export(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "accuracy service not configured"))
		return
	}
	employeeID, period, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	history, err := h.service.History(c.Request.Context(), employeeID, period, 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	dataset := accuracyDataset(history)
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	switch format {
	case "csv":
		payload, renderErr := h.csv.Render(dataset)
		if renderErr != nil {
			response.Error(c, appErrors.Wrap(renderErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=accuracy-%s-%s.csv", employeeID, strings.ToLower(string(period))))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, renderErr := h.pdf.Render(dataset, fmt.Sprintf("Work Accuracy - %s (%s)", employeeID, period))
		if renderErr != nil {
			response.Error(c, appErrors.Wrap(renderErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=accuracy-%s-%s.pdf", employeeID, strings.ToLower(string(period))))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func (h *AccuracyHandler) scope(c *gin.Context) (string, models.MetricPeriod, error) {
	employeeID := strings.TrimSpace(c.Param("employeeId"))
	if employeeID == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "employeeId is required")
	}
	period := models.MetricPeriod(strings.ToUpper(strings.TrimSpace(c.DefaultQuery("period", string(models.PeriodMonthly)))))
	if !period.Valid() {
		return "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported period type: %s", period))
	}
	claims := claimsFromContext(c)
	if claims == nil {
		return "", "", appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleTechnician && claims.UserID != employeeID {
		return "", "", appErrors.ErrForbidden
	}
	return employeeID, period, nil
}

func accuracyDataset(history []models.RetrievalMetric) export.Dataset {
	headers := []string{"period_start", "period_end", "total_actions", "retrieval_requests", "accuracy_rate"}
	rows := make([]map[string]string, 0, len(history))
	for _, metric := range history {
		rows = append(rows, map[string]string{
			"period_start":       metric.PeriodStart.Format("2006-01-02"),
			"period_end":         metric.PeriodEnd.Format("2006-01-02"),
			"total_actions":      strconv.Itoa(metric.TotalActions),
			"retrieval_requests": strconv.Itoa(metric.RetrievalRequests),
			"accuracy_rate":      strconv.FormatFloat(metric.AccuracyRate, 'f', 4, 64),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
