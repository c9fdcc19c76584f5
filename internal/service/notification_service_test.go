package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramzi-kassab/floorman-api/internal/models"
	"github.com/ramzi-kassab/floorman-api/pkg/jobs"
)

type stubNotificationStore struct {
	created    chan *models.Notification
	unread     []models.Notification
	markedRead []string
	listErr    error
}

func newStubNotificationStore() *stubNotificationStore {
	return &stubNotificationStore{created: make(chan *models.Notification, 8)}
}

func (s *stubNotificationStore) Create(_ context.Context, notification *models.Notification) error {
	s.created <- notification
	return nil
}

func (s *stubNotificationStore) ListUnread(_ context.Context, _ string, _ int) ([]models.Notification, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.unread, nil
}

func (s *stubNotificationStore) MarkRead(_ context.Context, id string, _ time.Time) error {
	s.markedRead = append(s.markedRead, id)
	return nil
}

type countingNotificationObserver struct {
	failures int
}

func (o *countingNotificationObserver) RecordNotificationFailure() { o.failures++ }

func awaitNotification(t *testing.T, store *stubNotificationStore) *models.Notification {
	t.Helper()
	select {
	case notification := <-store.created:
		return notification
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
		return nil
	}
}

func TestNotificationServiceDeliversDecision(t *testing.T) {
	store := newStubNotificationStore()
	svc := NewNotificationService(store, nil, jobs.QueueConfig{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	note := "checked with the floor"
	svc.NotifyDecision(ctx, &models.RetrievalRequest{
		ID:           "req-1",
		TargetType:   "job_card",
		TargetID:     "card-1",
		EmployeeID:   "emp-1",
		Action:       models.RetrievalActionDelete,
		Status:       models.RetrievalStatusApproved,
		DecisionNote: &note,
	})

	notification := awaitNotification(t, store)
	assert.Equal(t, "emp-1", notification.UserID)
	assert.Equal(t, "Retrieval request approved", notification.Subject)
	assert.Contains(t, notification.Body, "job_card/card-1")
	assert.Contains(t, notification.Body, note)
	require.NotNil(t, notification.RequestID)
	assert.Equal(t, "req-1", *notification.RequestID)
}

func TestNotificationServiceNotifiesAssignedSupervisor(t *testing.T) {
	store := newStubNotificationStore()
	svc := NewNotificationService(store, nil, jobs.QueueConfig{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	supervisor := "sup-1"
	svc.NotifySupervisor(ctx, &models.RetrievalRequest{
		ID:           "req-1",
		TargetType:   "stock_entry",
		TargetID:     "entry-1",
		EmployeeID:   "emp-1",
		SupervisorID: &supervisor,
		Action:       models.RetrievalActionRestore,
		Reason:       "restored by mistake",
	})

	notification := awaitNotification(t, store)
	assert.Equal(t, "sup-1", notification.UserID)
	assert.Contains(t, notification.Subject, "awaiting your review")
	assert.Contains(t, notification.Body, "restored by mistake")
}

func TestNotificationServiceSkipsMissingSupervisor(t *testing.T) {
	store := newStubNotificationStore()
	observer := &countingNotificationObserver{}
	// The queue is never started, so any dispatch would surface as a failure.
	svc := NewNotificationService(store, nil, jobs.QueueConfig{}, WithNotificationObserver(observer))

	svc.NotifySupervisor(context.Background(), &models.RetrievalRequest{ID: "req-1", EmployeeID: "emp-1"})
	assert.Equal(t, 0, observer.failures)
}

func TestNotificationServiceIgnoresNonDecisionStatuses(t *testing.T) {
	store := newStubNotificationStore()
	observer := &countingNotificationObserver{}
	svc := NewNotificationService(store, nil, jobs.QueueConfig{}, WithNotificationObserver(observer))

	svc.NotifyDecision(context.Background(), &models.RetrievalRequest{
		ID:     "req-1",
		Status: models.RetrievalStatusPending,
	})
	assert.Equal(t, 0, observer.failures)
}

func TestNotificationServiceRecordsEnqueueFailure(t *testing.T) {
	store := newStubNotificationStore()
	observer := &countingNotificationObserver{}
	svc := NewNotificationService(store, nil, jobs.QueueConfig{}, WithNotificationObserver(observer))

	svc.NotifyDecision(context.Background(), &models.RetrievalRequest{
		ID:     "req-1",
		Status: models.RetrievalStatusApproved,
	})
	assert.Equal(t, 1, observer.failures)
}

func TestNotificationServiceUnreadAndMarkRead(t *testing.T) {
	store := newStubNotificationStore()
	store.unread = []models.Notification{{ID: "note-1", UserID: "emp-1"}}
	svc := NewNotificationService(store, nil, jobs.QueueConfig{})

	notifications, err := svc.Unread(context.Background(), "emp-1", 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "note-1", notifications[0].ID)

	require.NoError(t, svc.MarkRead(context.Background(), "note-1"))
	assert.Equal(t, []string{"note-1"}, store.markedRead)

	store.listErr = errors.New("connection reset")
	_, err = svc.Unread(context.Background(), "emp-1", 10)
	require.Error(t, err)
}
