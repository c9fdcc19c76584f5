package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ramzi-kassab/floorman-api/internal/dto"
	"github.com/ramzi-kassab/floorman-api/internal/models"
	"github.com/ramzi-kassab/floorman-api/internal/repository"
	appErrors "github.com/ramzi-kassab/floorman-api/pkg/errors"
)

type retrievalStore interface {
	Create(ctx context.Context, request *models.RetrievalRequest) error
	GetByID(ctx context.Context, id string) (*models.RetrievalRequest, error)
	List(ctx context.Context, filter models.RetrievalFilter) ([]models.RetrievalRequest, error)
	ListPending(ctx context.Context, limit int) ([]models.RetrievalRequest, error)
	CountOpenForTarget(ctx context.Context, targetType, targetID string) (int, error)
	Decide(ctx context.Context, params repository.DecideRetrievalParams) error
	Complete(ctx context.Context, id string, completedAt time.Time, undo func(ctx context.Context, tx *sqlx.Tx) error) error
}

type supervisorDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindDepartmentHead(ctx context.Context, departmentID string) (*models.User, error)
}

type retrievalNotifier interface {
	NotifySupervisor(ctx context.Context, request *models.RetrievalRequest)
	NotifyDecision(ctx context.Context, request *models.RetrievalRequest)
}

type retrievalObserver interface {
	ObserveRetrievalDecision(status string)
	ObserveSweep(duration time.Duration, scanned, approved int)
}

// RetrievalService orchestrates the undo request lifecycle: creation with
// dependency checks and snapshotting, supervisor decisions, execution of the
// reversal, and the periodic auto-approval sweep.
type RetrievalService struct {
	repo     retrievalStore
	registry *RetrievableRegistry
	users    supervisorDirectory
	audit    auditLogger
	notifier retrievalNotifier
	observer retrievalObserver
	logger   *zap.Logger

	fallbackApproverID string
	now                func() time.Time
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RetrievalServiceOption configures the service.
type RetrievalServiceOption func(*RetrievalService)

// WithFallbackApprover sets the approver of last resort for employees with no
// supervisor and no department head.
func WithFallbackApprover(userID string) RetrievalServiceOption {
	return func(s *RetrievalService) {
		s.fallbackApproverID = strings.TrimSpace(userID)
	}
}

// WithRetrievalNotifier attaches the notification dispatcher.
func WithRetrievalNotifier(notifier retrievalNotifier) RetrievalServiceOption {
	return func(s *RetrievalService) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithRetrievalObserver attaches decision and sweep instrumentation.
func WithRetrievalObserver(observer retrievalObserver) RetrievalServiceOption {
	return func(s *RetrievalService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithRetrievalClock overrides the time source, used by window tests.
func WithRetrievalClock(now func() time.Time) RetrievalServiceOption {
	return func(s *RetrievalService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRetrievalService constructs the service with defaults.
func NewRetrievalService(repo retrievalStore, registry *RetrievableRegistry, users supervisorDirectory, audit auditLogger, logger *zap.Logger, opts ...RetrievalServiceOption) *RetrievalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RetrievalService{
		repo:     repo,
		registry: registry,
		users:    users,
		audit:    audit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// CanBeRetrieved reports whether a target currently accepts a new undo request
// and, when it does not, every reason why.
func (s *RetrievalService) CanBeRetrieved(ctx context.Context, targetType, targetID string, action models.RetrievalAction) (*dto.RetrievalEligibility, error) {
	if !action.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported action: %s", action))
	}
	target, _, ok := s.registry.Lookup(targetType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported target type: %s", targetType))
	}
	reasons, err := s.collectObstacles(ctx, target, targetType, targetID, action)
	if err != nil {
		return nil, err
	}
	return &dto.RetrievalEligibility{Retrievable: len(reasons) == 0, Reasons: reasons}, nil
}

// collectObstacles gathers every reason a request cannot proceed, so the caller
// sees the full list in one pass rather than one failure at a time.
func (s *RetrievalService) collectObstacles(ctx context.Context, target Retrievable, targetType, targetID string, action models.RetrievalAction) ([]string, error) {
	blockers, err := target.Blockers(ctx, targetID, action)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", targetType, targetID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate blockers")
	}
	reasons := append([]string(nil), blockers...)

	deps, err := target.Dependencies(ctx, targetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate dependencies")
	}
	for _, dep := range deps {
		reasons = append(reasons, fmt.Sprintf("%d dependent %s record(s): %s", dep.Count, dep.Relation, dep.Description))
	}

	open, err := s.repo.CountOpenForTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open requests")
	}
	if open > 0 {
		reasons = append(reasons, "an open retrieval request already exists for this target")
	}
	return reasons, nil
}

// CreateRequest validates, snapshots, and stores a new undo request. Requests
// with no dependents on an auto-approvable action skip the pending state
// entirely and are stamped AUTO_APPROVED at creation.
func (s *RetrievalService) CreateRequest(ctx context.Context, req dto.CreateRetrievalRequest, actor *models.JWTClaims) (*models.RetrievalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}
	target, cfg, ok := s.registry.Lookup(req.TargetType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported target type: %s", req.TargetType))
	}

	blockers, err := target.Blockers(ctx, req.TargetID, req.Action)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", req.TargetType, req.TargetID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate blockers")
	}
	if len(blockers) > 0 {
		return nil, appErrors.Clone(appErrors.ErrDependencyBlocked, strings.Join(blockers, "; "))
	}

	deps, err := target.Dependencies(ctx, req.TargetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate dependencies")
	}
	hasDependents := len(deps) > 0
	if hasDependents && !s.mayForce(req, actor) {
		reasons := make([]string, 0, len(deps))
		for _, dep := range deps {
			reasons = append(reasons, fmt.Sprintf("%d dependent %s record(s): %s", dep.Count, dep.Relation, dep.Description))
		}
		return nil, appErrors.Clone(appErrors.ErrDependencyBlocked, strings.Join(reasons, "; "))
	}

	snapshot, err := target.Snapshot(ctx, req.TargetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to capture target snapshot")
	}
	if len(snapshot) == 0 {
		snapshot = []byte("{}")
	}

	supervisorID, err := s.resolveSupervisor(ctx, target, actor.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	request := &models.RetrievalRequest{
		TargetType:    req.TargetType,
		TargetID:      req.TargetID,
		EmployeeID:    actor.UserID,
		SupervisorID:  supervisorID,
		Action:        req.Action,
		Reason:        strings.TrimSpace(req.Reason),
		Status:        models.RetrievalStatusPending,
		OriginalData:  append([]byte(nil), snapshot...),
		HasDependents: hasDependents,
		CreatedAt:     now,
	}
	if hasDependents {
		details, marshalErr := json.Marshal(deps)
		if marshalErr != nil {
			return nil, appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode dependency details")
		}
		request.DependencyDetails = details
	}
	if !hasDependents && !cfg.manual(req.Action) {
		decidedAt := now
		request.Status = models.RetrievalStatusAutoApproved
		request.DecidedAt = &decidedAt
	}

	if err := s.repo.Create(ctx, request); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create retrieval request")
	}
	s.observeDecision(request.Status)

	if s.notifier != nil {
		if request.Status == models.RetrievalStatusPending {
			s.notifier.NotifySupervisor(ctx, request)
		} else {
			s.notifier.NotifyDecision(ctx, request)
		}
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRetrievalCreate,
		Resource:   request.TargetType,
		ResourceID: &request.TargetID,
		NewValues:  mustStatusPayload(request),
	})
	return request, nil
}

// List returns requests the actor is allowed to see. Technicians see only
// their own; supervisors and admins see everything the filter matches.
func (s *RetrievalService) List(ctx context.Context, query dto.RetrievalQuery, actor *models.JWTClaims) ([]models.RetrievalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.RetrievalFilter{
		Status:     query.Status,
		TargetType: strings.TrimSpace(query.TargetType),
		EmployeeID: strings.TrimSpace(query.EmployeeID),
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleSupervisor:
	case models.RoleTechnician:
		filter.EmployeeID = actor.UserID
	default:
		return nil, appErrors.ErrForbidden
	}
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list retrieval requests")
	}
	return requests, nil
}

// Get returns a single request enforcing scope constraints.
func (s *RetrievalService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RetrievalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleTechnician && request.EmployeeID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// Approve records a manual approval. Only the assigned supervisor or an admin
// may approve, and only while the request is still pending.
func (s *RetrievalService) Approve(ctx context.Context, id string, req dto.ApproveRetrievalRequest, actor *models.JWTClaims) (*models.RetrievalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requirePending(request); err != nil {
		return nil, err
	}
	if !s.mayDecide(request, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned supervisor or an admin may approve this request")
	}
	return s.decide(ctx, request, models.RetrievalStatusApproved, actor.UserID, strings.TrimSpace(req.Note))
}

// Reject records a manual rejection with a mandatory reason.
func (s *RetrievalService) Reject(ctx context.Context, id string, req dto.RejectRetrievalRequest, actor *models.JWTClaims) (*models.RetrievalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requirePending(request); err != nil {
		return nil, err
	}
	if !s.mayDecide(request, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned supervisor or an admin may reject this request")
	}
	return s.decide(ctx, request, models.RetrievalStatusRejected, actor.UserID, reason)
}

// Cancel lets the requesting employee withdraw a still-pending request. The
// row is kept with a terminal CANCELLED status, never deleted.
func (s *RetrievalService) Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.RetrievalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.EmployeeID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requesting employee may cancel")
	}
	if err := requirePending(request); err != nil {
		return nil, err
	}

	now := s.now()
	params := repository.DecideRetrievalParams{
		ID:        request.ID,
		Status:    models.RetrievalStatusCancelled,
		DecidedBy: &actor.UserID,
		DecidedAt: now,
	}
	if err := s.repo.Decide(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStateConflict, fmt.Sprintf("request %s was already decided", request.ID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel retrieval request")
	}
	request.Status = models.RetrievalStatusCancelled
	request.DecidedBy = &actor.UserID
	request.DecidedAt = &now
	s.observeDecision(request.Status)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRetrievalDecide,
		Resource:   request.TargetType,
		ResourceID: &request.TargetID,
		NewValues:  mustStatusPayload(request),
	})
	return request, nil
}

// Perform executes the reversal for an approved request. The status change and
// the undo action commit in one transaction; if the undo fails the request
// stays approved and may be retried.
func (s *RetrievalService) Perform(ctx context.Context, id string, actor *models.JWTClaims) (*models.RetrievalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	switch request.Status {
	case models.RetrievalStatusApproved, models.RetrievalStatusAutoApproved:
	default:
		return nil, appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("request %s is %s and cannot be performed", request.ID, request.Status))
	}
	if !s.mayPerform(request, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to perform this retrieval")
	}
	target, _, ok := s.registry.Lookup(request.TargetType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("unsupported target type: %s", request.TargetType))
	}

	now := s.now()
	err = s.repo.Complete(ctx, request.ID, now, func(ctx context.Context, tx *sqlx.Tx) error {
		return target.Undo(ctx, tx, request)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStateConflict, fmt.Sprintf("request %s was already completed", request.ID))
		}
		s.logger.Error("undo execution failed",
			zap.String("request_id", request.ID),
			zap.String("target_type", request.TargetType),
			zap.String("target_id", request.TargetID),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUndoFailed.Code, appErrors.ErrUndoFailed.Status,
			fmt.Sprintf("failed to undo %s on %s/%s", request.Action, request.TargetType, request.TargetID))
	}
	request.Status = models.RetrievalStatusCompleted
	request.CompletedAt = &now
	s.observeDecision(request.Status)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRetrievalPerform,
		Resource:   request.TargetType,
		ResourceID: &request.TargetID,
		OldValues:  request.OriginalData,
		NewValues:  mustStatusPayload(request),
	})
	return request, nil
}

// SweepAutoApprove promotes pending requests that still satisfy the
// auto-approval policy: inside the per-type window, no dependents on record,
// and an action the type allows to self-approve. The sweep is idempotent;
// requests that lose the compare-and-swap race are simply skipped.
func (s *RetrievalService) SweepAutoApprove(ctx context.Context) (*dto.SweepResult, error) {
	started := s.now()
	pending, err := s.repo.ListPending(ctx, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending requests")
	}

	result := &dto.SweepResult{Scanned: len(pending)}
	for i := range pending {
		request := &pending[i]
		_, cfg, ok := s.registry.Lookup(request.TargetType)
		if !ok {
			s.logger.Warn("sweep skipped unregistered target type",
				zap.String("request_id", request.ID),
				zap.String("target_type", request.TargetType))
			continue
		}
		now := s.now()
		if request.HasDependents || cfg.manual(request.Action) || now.Sub(request.CreatedAt) > cfg.AutoApproveWindow {
			continue
		}
		params := repository.DecideRetrievalParams{
			ID:        request.ID,
			Status:    models.RetrievalStatusAutoApproved,
			DecidedAt: now,
		}
		if err := s.repo.Decide(ctx, params); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to auto-approve request")
		}
		request.Status = models.RetrievalStatusAutoApproved
		request.DecidedAt = &now
		result.Approved++
		s.observeDecision(request.Status)
		if s.notifier != nil {
			s.notifier.NotifyDecision(ctx, request)
		}
	}
	if s.observer != nil {
		s.observer.ObserveSweep(s.now().Sub(started), result.Scanned, result.Approved)
	}
	return result, nil
}

func (s *RetrievalService) decide(ctx context.Context, request *models.RetrievalRequest, status models.RetrievalStatus, deciderID, note string) (*models.RetrievalRequest, error) {
	now := s.now()
	params := repository.DecideRetrievalParams{
		ID:        request.ID,
		Status:    status,
		DecidedBy: &deciderID,
		DecidedAt: now,
		Note:      optionalString(note),
	}
	if err := s.repo.Decide(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStateConflict, fmt.Sprintf("request %s was already decided", request.ID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}
	request.Status = status
	request.DecidedBy = &deciderID
	request.DecidedAt = &now
	request.DecisionNote = optionalString(note)
	s.observeDecision(status)
	if s.notifier != nil {
		s.notifier.NotifyDecision(ctx, request)
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &deciderID,
		Action:     models.AuditActionRetrievalDecide,
		Resource:   request.TargetType,
		ResourceID: &request.TargetID,
		NewValues:  mustStatusPayload(request),
	})
	return request, nil
}

func (s *RetrievalService) loadRequest(ctx context.Context, id string) (*models.RetrievalRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load retrieval request")
	}
	return request, nil
}

// resolveSupervisor walks the reporting chain: a per-type override first, then
// the employee's direct supervisor, then the department head, then the
// configured fallback approver. Nil means auto-approval is the only path to a
// decision besides an admin.
func (s *RetrievalService) resolveSupervisor(ctx context.Context, target Retrievable, employeeID string) (*string, error) {
	if resolver, ok := target.(SupervisorResolver); ok {
		id, err := resolver.ResolveSupervisor(ctx, employeeID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve supervisor")
		}
		if id != "" {
			return &id, nil
		}
	}
	employee, err := s.users.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "requesting employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requesting employee")
	}
	if employee.SupervisorID != nil && *employee.SupervisorID != "" && *employee.SupervisorID != employeeID {
		return employee.SupervisorID, nil
	}
	if employee.DepartmentID != nil && *employee.DepartmentID != "" {
		head, err := s.users.FindDepartmentHead(ctx, *employee.DepartmentID)
		if err == nil && head.ID != employeeID {
			return &head.ID, nil
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve department head")
		}
	}
	if s.fallbackApproverID != "" && s.fallbackApproverID != employeeID {
		fallback := s.fallbackApproverID
		return &fallback, nil
	}
	return nil, nil
}

func (s *RetrievalService) mayForce(req dto.CreateRetrievalRequest, actor *models.JWTClaims) bool {
	if !req.Force {
		return false
	}
	return actor.Role == models.RoleSupervisor || actor.Role == models.RoleAdmin
}

func (s *RetrievalService) mayDecide(request *models.RetrievalRequest, actor *models.JWTClaims) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if actor.Role != models.RoleSupervisor {
		return false
	}
	return request.SupervisorID != nil && *request.SupervisorID == actor.UserID
}

func (s *RetrievalService) mayPerform(request *models.RetrievalRequest, actor *models.JWTClaims) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if request.EmployeeID == actor.UserID {
		return true
	}
	return request.SupervisorID != nil && *request.SupervisorID == actor.UserID
}

func (s *RetrievalService) observeDecision(status models.RetrievalStatus) {
	if s.observer != nil {
		s.observer.ObserveRetrievalDecision(string(status))
	}
}

func (s *RetrievalService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "retrieval-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func requirePending(request *models.RetrievalRequest) error {
	if request.Status != models.RetrievalStatusPending {
		return appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("request %s is %s and no longer pending", request.ID, request.Status))
	}
	return nil
}

func validateCreateRequest(req dto.CreateRetrievalRequest) error {
	if strings.TrimSpace(req.TargetType) == "" || strings.TrimSpace(req.TargetID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "targetType and targetId are required")
	}
	if !req.Action.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "action must be DELETE, EDIT, UNDO, or RESTORE")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "reason is required")
	}
	return nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mustStatusPayload(request *models.RetrievalRequest) []byte {
	payload, err := json.Marshal(map[string]string{
		"status": string(request.Status),
		"action": string(request.Action),
	})
	if err != nil {
		return []byte("{}")
	}
	return payload
}
