package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ramzi-kassab/floorman-api/internal/models"
	appErrors "github.com/ramzi-kassab/floorman-api/pkg/errors"
	"github.com/ramzi-kassab/floorman-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListUnread(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string, readAt time.Time) error
}

type notificationObserver interface {
	RecordNotificationFailure()
}

// NotificationService delivers in-app notifications through a background
// queue. Delivery failures are logged and retried by the queue; they never
// propagate into the workflow that triggered them.
type NotificationService struct {
	store    notificationStore
	queue    *jobs.Queue
	observer notificationObserver
	logger   *zap.Logger
}

// NotificationServiceOption configures the service.
type NotificationServiceOption func(*NotificationService)

// WithNotificationObserver attaches failure instrumentation.
func WithNotificationObserver(observer notificationObserver) NotificationServiceOption {
	return func(s *NotificationService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// NewNotificationService constructs the dispatcher around an in-memory queue.
func NewNotificationService(store notificationStore, logger *zap.Logger, cfg jobs.QueueConfig, opts ...NotificationServiceOption) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{store: store, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	svc.queue = jobs.NewQueue("notifications", svc.handleJob, cfg)
	return svc
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifySupervisor queues the review notification for a freshly created
// pending request. Requests without an assigned supervisor are logged and
// skipped; an admin can still find them in the pending list.
func (s *NotificationService) NotifySupervisor(ctx context.Context, request *models.RetrievalRequest) {
	if request.SupervisorID == nil || *request.SupervisorID == "" {
		s.logger.Warn("pending request has no supervisor to notify",
			zap.String("request_id", request.ID),
			zap.String("employee_id", request.EmployeeID))
		return
	}
	s.dispatch(&models.Notification{
		UserID:    *request.SupervisorID,
		Subject:   "Retrieval request awaiting your review",
		Body:      fmt.Sprintf("%s requested to undo %s on %s/%s: %s", request.EmployeeID, request.Action, request.TargetType, request.TargetID, request.Reason),
		RequestID: &request.ID,
	})
}

// NotifyDecision queues the outcome notification for the requesting employee.
func (s *NotificationService) NotifyDecision(ctx context.Context, request *models.RetrievalRequest) {
	var subject string
	switch request.Status {
	case models.RetrievalStatusAutoApproved:
		subject = "Retrieval request auto-approved"
	case models.RetrievalStatusApproved:
		subject = "Retrieval request approved"
	case models.RetrievalStatusRejected:
		subject = "Retrieval request rejected"
	default:
		return
	}
	body := fmt.Sprintf("Your request to undo %s on %s/%s is %s", request.Action, request.TargetType, request.TargetID, request.Status)
	if request.DecisionNote != nil && *request.DecisionNote != "" {
		body += ": " + *request.DecisionNote
	}
	s.dispatch(&models.Notification{
		UserID:    request.EmployeeID,
		Subject:   subject,
		Body:      body,
		RequestID: &request.ID,
	})
}

// Unread lists a user's unread notifications.
func (s *NotificationService) Unread(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	notifications, err := s.store.ListUnread(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead stamps a notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.store.MarkRead(ctx, id, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

func (s *NotificationService) dispatch(notification *models.Notification) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    "notification.deliver",
		Payload: notification,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("user_id", notification.UserID),
			zap.Error(err))
		s.recordFailure()
	}
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(*models.Notification)
	if !ok {
		s.logger.Error("notification job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.store.Create(ctx, notification); err != nil {
		s.recordFailure()
		return err
	}
	return nil
}

func (s *NotificationService) recordFailure() {
	if s.observer != nil {
		s.observer.RecordNotificationFailure()
	}
}
