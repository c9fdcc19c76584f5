package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ramzi-kassab/floorman-api/internal/dto"
	"github.com/ramzi-kassab/floorman-api/internal/models"
	appErrors "github.com/ramzi-kassab/floorman-api/pkg/errors"
	"github.com/ramzi-kassab/floorman-api/pkg/response"
)

type retrievalService interface {
	CreateRequest(ctx context.Context, req dto.CreateRetrievalRequest, actor *models.JWTClaims) (*models.RetrievalRequest, error)
	List(ctx context.Context, query dto.RetrievalQuery, actor *models.JWTClaims) ([]models.RetrievalRequest, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RetrievalRequest, error)
	Approve(ctx context.Context, id string, req dto.ApproveRetrievalRequest, actor *models.JWTClaims) (*models.RetrievalRequest, error)
	Reject(ctx context.Context, id string, req dto.RejectRetrievalRequest, actor *models.JWTClaims) (*models.RetrievalRequest, error)
	Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.RetrievalRequest, error)
	Perform(ctx context.Context, id string, actor *models.JWTClaims) (*models.RetrievalRequest, error)
	SweepAutoApprove(ctx context.Context) (*dto.SweepResult, error)
	CanBeRetrieved(ctx context.Context, targetType, targetID string, action models.RetrievalAction) (*dto.RetrievalEligibility, error)
}

// RetrievalHandler exposes REST endpoints for the undo request workflow.
type RetrievalHandler struct {
	service retrievalService
}

// NewRetrievalHandler constructs the handler.
func NewRetrievalHandler(service retrievalService) *RetrievalHandler {
	return &RetrievalHandler{service: service}
}

// Create godoc
// @Summary Submit a retrieval request
// @Tags Retrievals
// @Accept json
// @Produce json
// @Param payload body dto.CreateRetrievalRequest true "Retrieval payload"
// @Success 201 {object} response.Envelope
// @Router /retrievals [post]
func (h *RetrievalHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "retrieval service not configured"))
		return
	}
	var req dto.CreateRetrievalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid retrieval payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.CreateRequest(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, request, nil)
}

// List godoc
// @Summary List retrieval requests
// @Tags Retrievals
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param targetType query string false "Target type"
// @Param employeeId query string false "Employee id"
// @Success 200 {object} response.Envelope
// @Router /retrievals [get]
func (h *RetrievalHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "retrieval service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.RetrievalQuery{
		TargetType: strings.TrimSpace(c.Query("targetType")),
		EmployeeID: strings.TrimSpace(c.Query("employeeId")),
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		parts := strings.Split(rawStatus, ",")
		statuses := make([]models.RetrievalStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.RetrievalStatus(part))
		}
		query.Status = statuses
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			query.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			query.Offset = offset
		}
	}
	requests, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get retrieval request detail
// @Tags Retrievals
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /retrievals/{id} [get]
func (h *RetrievalHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "retrieval service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Eligibility godoc
// @Summary Check whether a target can be retrieved
// @Tags Retrievals
// @Produce json
// @Param targetType query string true "Target type"
// @Param targetId query string true "Target id"
// @Param action query string true "Action"
// @Success 200 {object} response.Envelope
// @Router /retrievals/eligibility [get]
func (h *RetrievalHandler) Eligibility(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "retrieval service not configured"))
		return
	}
	targetType := strings.TrimSpace(c.Query("targetType"))
	targetID := strings.TrimSpace(c.Query("targetId"))
	action := models.RetrievalAction(strings.ToUpper(strings.TrimSpace(c.Query("action"))))
	if targetType == "" || targetID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "targetType and targetId are required"))
		return
	}
	eligibility, err := h.service.CanBeRetrieved(c.Request.Context(), targetType, targetID, action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eligibility, nil)
}

// Approve godoc
// @Summary Approve a pending retrieval request
// @Tags Retrievals
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ApproveRetrievalRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Router /retrievals/{id}/approve [post]
func (h *RetrievalHandler) Approve(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "retrieval service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ApproveRetrievalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid approval payload"))
			return
		}
	}
	request, err := h.service.Approve(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Reject godoc
// @Summary Reject a pending retrieval request
// @Tags Retrievals
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RejectRetrievalRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /retrievals/{id}/reject [post]
func (h *RetrievalHandler) Reject(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "retrieval service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RejectRetrievalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rejection payload"))
		return
	}
	request, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Cancel godoc
// @Summary Cancel an own pending retrieval request
// @Tags Retrievals
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /retrievals/{id}/cancel [post]
func (h *RetrievalHandler) Cancel(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "retrieval service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Cancel(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Perform godoc
// @Summary Execute the undo for an approved retrieval request
// @Tags Retrievals
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /retrievals/{id}/perform [post]
func (h *RetrievalHandler) Perform(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "retrieval service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Perform(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Sweep godoc
// @Summary Run the auto-approval sweep on demand
// @Tags Retrievals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /retrievals/sweep [post]
func (h *RetrievalHandler) Sweep(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "retrieval service not configured"))
		return
	}
	result, err := h.service.SweepAutoApprove(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
