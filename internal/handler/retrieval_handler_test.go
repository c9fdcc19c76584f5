package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramzi-kassab/floorman-api/internal/dto"
	"github.com/ramzi-kassab/floorman-api/internal/middleware"
	"github.com/ramzi-kassab/floorman-api/internal/models"
	appErrors "github.com/ramzi-kassab/floorman-api/pkg/errors"
)

type fakeRetrievalService struct {
	request     *models.RetrievalRequest
	requests    []models.RetrievalRequest
	sweep       *dto.SweepResult
	eligibility *dto.RetrievalEligibility
	err         error

	lastCreate dto.CreateRetrievalRequest
	lastQuery  dto.RetrievalQuery
	lastReject dto.RejectRetrievalRequest
}

func (f *fakeRetrievalService) CreateRequest(_ context.Context, req dto.CreateRetrievalRequest, _ *models.JWTClaims) (*models.RetrievalRequest, error) {
	f.lastCreate = req
	return f.request, f.err
}

func (f *fakeRetrievalService) List(_ context.Context, query dto.RetrievalQuery, _ *models.JWTClaims) ([]models.RetrievalRequest, error) {
	f.lastQuery = query
	return f.requests, f.err
}

func (f *fakeRetrievalService) Get(_ context.Context, _ string, _ *models.JWTClaims) (*models.RetrievalRequest, error) {
	return f.request, f.err
}

func (f *fakeRetrievalService) Approve(_ context.Context, _ string, _ dto.ApproveRetrievalRequest, _ *models.JWTClaims) (*models.RetrievalRequest, error) {
	return f.request, f.err
}

func (f *fakeRetrievalService) Reject(_ context.Context, _ string, req dto.RejectRetrievalRequest, _ *models.JWTClaims) (*models.RetrievalRequest, error) {
	f.lastReject = req
	return f.request, f.err
}

func (f *fakeRetrievalService) Cancel(_ context.Context, _ string, _ *models.JWTClaims) (*models.RetrievalRequest, error) {
	return f.request, f.err
}

func (f *fakeRetrievalService) Perform(_ context.Context, _ string, _ *models.JWTClaims) (*models.RetrievalRequest, error) {
	return f.request, f.err
}

func (f *fakeRetrievalService) SweepAutoApprove(_ context.Context) (*dto.SweepResult, error) {
	return f.sweep, f.err
}

func (f *fakeRetrievalService) CanBeRetrieved(_ context.Context, _, _ string, _ models.RetrievalAction) (*dto.RetrievalEligibility, error) {
	return f.eligibility, f.err
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func newTestContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

func authenticate(c *gin.Context, userID string, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
}

func TestRetrievalHandlerCreate(t *testing.T) {
	svc := &fakeRetrievalService{request: &models.RetrievalRequest{
		ID:     "req-1",
		Status: models.RetrievalStatusAutoApproved,
	}}
	h := NewRetrievalHandler(svc)

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/retrievals",
		`{"targetType":"job_card","targetId":"card-1","action":"DELETE","reason":"oops"}`)
	authenticate(c, "emp-1", models.RoleTechnician)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "job_card", svc.lastCreate.TargetType)
	assert.Equal(t, models.RetrievalActionDelete, svc.lastCreate.Action)
	env := decodeEnvelope(t, rec)
	assert.Nil(t, env.Error)
	assert.Contains(t, string(env.Data), "req-1")
}

func TestRetrievalHandlerCreateUnauthenticated(t *testing.T) {
	h := NewRetrievalHandler(&fakeRetrievalService{})

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/retrievals",
		`{"targetType":"job_card","targetId":"card-1","action":"DELETE","reason":"oops"}`)
	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRetrievalHandlerCreateInvalidPayload(t *testing.T) {
	h := NewRetrievalHandler(&fakeRetrievalService{})

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/retrievals", `{"targetType":`)
	authenticate(c, "emp-1", models.RoleTechnician)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
}

func TestRetrievalHandlerCreateDependencyBlocked(t *testing.T) {
	svc := &fakeRetrievalService{err: appErrors.Clone(appErrors.ErrDependencyBlocked, "2 dependent qc_approvals record(s)")}
	h := NewRetrievalHandler(svc)

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/retrievals",
		`{"targetType":"job_card","targetId":"card-1","action":"DELETE","reason":"oops"}`)
	authenticate(c, "emp-1", models.RoleTechnician)
	h.Create(c)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrDependencyBlocked.Code, env.Error.Code)
}

func TestRetrievalHandlerListParsesStatuses(t *testing.T) {
	svc := &fakeRetrievalService{}
	h := NewRetrievalHandler(svc)

	c, rec := newTestContext(t, http.MethodGet,
		"/api/v1/retrievals?status=pending,%20approved&targetType=stock_entry&limit=25", "")
	authenticate(c, "sup-1", models.RoleSupervisor)
	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.RetrievalStatus{
		models.RetrievalStatusPending,
		models.RetrievalStatusApproved,
	}, svc.lastQuery.Status)
	assert.Equal(t, "stock_entry", svc.lastQuery.TargetType)
	assert.Equal(t, 25, svc.lastQuery.Limit)
}

func TestRetrievalHandlerEligibilityRequiresTarget(t *testing.T) {
	svc := &fakeRetrievalService{eligibility: &dto.RetrievalEligibility{Retrievable: true}}
	h := NewRetrievalHandler(svc)

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/retrievals/eligibility?targetType=job_card", "")
	h.Eligibility(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(t, http.MethodGet,
		"/api/v1/retrievals/eligibility?targetType=job_card&targetId=card-1&action=delete", "")
	h.Eligibility(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), `"retrievable":true`)
}

func TestRetrievalHandlerApproveWithoutBody(t *testing.T) {
	svc := &fakeRetrievalService{request: &models.RetrievalRequest{
		ID:     "req-1",
		Status: models.RetrievalStatusApproved,
	}}
	h := NewRetrievalHandler(svc)

	// The note payload is optional.
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/retrievals/req-1/approve", "")
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	authenticate(c, "sup-1", models.RoleSupervisor)
	h.Approve(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRetrievalHandlerRejectStateConflict(t *testing.T) {
	svc := &fakeRetrievalService{err: appErrors.Clone(appErrors.ErrStateConflict, "request req-1 is COMPLETED and no longer pending")}
	h := NewRetrievalHandler(svc)

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/retrievals/req-1/reject",
		`{"reason":"card is still needed"}`)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	authenticate(c, "sup-1", models.RoleSupervisor)
	h.Reject(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "card is still needed", svc.lastReject.Reason)
}

func TestRetrievalHandlerPerform(t *testing.T) {
	svc := &fakeRetrievalService{request: &models.RetrievalRequest{
		ID:     "req-1",
		Status: models.RetrievalStatusCompleted,
	}}
	h := NewRetrievalHandler(svc)

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/retrievals/req-1/perform", "")
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	authenticate(c, "emp-1", models.RoleTechnician)
	h.Perform(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), "COMPLETED")
}

func TestRetrievalHandlerSweep(t *testing.T) {
	svc := &fakeRetrievalService{sweep: &dto.SweepResult{Scanned: 4, Approved: 2}}
	h := NewRetrievalHandler(svc)

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/retrievals/sweep", "")
	authenticate(c, "admin-1", models.RoleAdmin)
	h.Sweep(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.JSONEq(t, `{"scanned":4,"approved":2}`, string(env.Data))
}
