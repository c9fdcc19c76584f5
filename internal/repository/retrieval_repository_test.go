package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/ramzi-kassab/floorman-api/internal/models"
	appErrors "github.com/ramzi-kassab/floorman-api/pkg/errors"
)

func newRetrievalRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRetrievalRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewRetrievalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO retrieval_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.RetrievalRequest{
		TargetType:   "job_card",
		TargetID:     "card-1",
		EmployeeID:   "emp-1",
		Action:       models.RetrievalActionDelete,
		Reason:       "deleted the wrong card",
		OriginalData: []byte(`{"id":"card-1"}`),
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.RetrievalStatusPending, request.Status)
	require.False(t, request.CreatedAt.IsZero())

	rows := sqlmock.NewRows([]string{"id", "target_type", "target_id", "employee_id", "supervisor_id", "action", "reason", "status", "original_data", "has_dependents", "dependency_details", "decided_by", "decision_note", "created_at", "decided_at", "completed_at"}).
		AddRow(request.ID, "job_card", "card-1", "emp-1", nil, "DELETE", "deleted the wrong card", "PENDING", []byte(`{"id":"card-1"}`), false, nil, nil, nil, time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, target_type, target_id")).
		WithArgs(request.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, request.ID, found.ID)
	require.Equal(t, models.RetrievalActionDelete, found.Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrievalRepositoryCreateUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewRetrievalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO retrieval_requests")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.RetrievalRequest{
		TargetType: "job_card",
		TargetID:   "card-1",
		EmployeeID: "emp-1",
		Action:     models.RetrievalActionDelete,
		Reason:     "dup",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrievalRepositoryDecideCAS(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewRetrievalRepository(db)
	decider := "sup-1"
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE retrieval_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err := repo.Decide(context.Background(), DecideRetrievalParams{
		ID:        "req-1",
		Status:    models.RetrievalStatusApproved,
		DecidedBy: &decider,
		DecidedAt: now,
	})
	require.NoError(t, err)

	// Losing the race yields zero rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retrieval_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.Decide(context.Background(), DecideRetrievalParams{
		ID:        "req-1",
		Status:    models.RetrievalStatusRejected,
		DecidedBy: &decider,
		DecidedAt: now,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrievalRepositoryCompleteCommitsUndoAtomically(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewRetrievalRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retrieval_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE job_cards SET deleted_at = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Complete(context.Background(), "req-1", now, func(ctx context.Context, tx *sqlx.Tx) error {
		_, execErr := tx.ExecContext(ctx, `UPDATE job_cards SET deleted_at = NULL, updated_at = $2 WHERE id = $1 AND deleted_at IS NOT NULL`, "card-1", now)
		return execErr
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrievalRepositoryCompleteRollsBackOnUndoFailure(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewRetrievalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retrieval_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	undoErr := errors.New("target row vanished")
	err := repo.Complete(context.Background(), "req-1", time.Now().UTC(), func(ctx context.Context, tx *sqlx.Tx) error {
		return undoErr
	})
	require.ErrorIs(t, err, undoErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrievalRepositoryCompleteAlreadyCompleted(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewRetrievalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retrieval_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), "req-1", time.Now().UTC(), nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrievalRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewRetrievalRepository(db)
	rows := sqlmock.NewRows([]string{"id", "target_type", "target_id", "employee_id", "supervisor_id", "action", "reason", "status", "original_data", "has_dependents", "dependency_details", "decided_by", "decision_note", "created_at", "decided_at", "completed_at"}).
		AddRow("req-1", "stock_entry", "entry-1", "emp-1", nil, "EDIT", "typo", "PENDING", []byte(`{}`), false, nil, nil, nil, time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, target_type, target_id")).
		WithArgs("PENDING", "stock_entry").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.RetrievalFilter{
		Status:     []models.RetrievalStatus{models.RetrievalStatusPending},
		TargetType: "stock_entry",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "req-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
