package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestJobCardRepositoryGetAnyIncludesDeleted(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewJobCardRepository(db)
	deletedAt := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "card_number", "bit_serial", "customer", "status", "cutter_count", "notes", "created_by", "deleted_at", "created_at", "updated_at"}).
		AddRow("card-1", "JC-1001", "BIT-77", "Apex Drilling", "IN_REPAIR", 48, nil, "emp-1", deletedAt, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, card_number, bit_serial")).
		WithArgs("card-1").
		WillReturnRows(rows)

	card, err := repo.GetAny(context.Background(), "card-1")
	require.NoError(t, err)
	require.Equal(t, "JC-1001", card.CardNumber)
	require.NotNil(t, card.DeletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobCardRepositoryRestoreTx(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewJobCardRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE job_cards SET deleted_at = NULL")).
		WithArgs("card-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RestoreTx(context.Background(), db, "card-1", now))

	// A card that is not deleted cannot be restored.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE job_cards SET deleted_at = NULL")).
		WithArgs("card-1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.RestoreTx(context.Background(), db, "card-1", now)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobCardRepositoryCountDependents(t *testing.T) {
	db, mock, cleanup := newRetrievalRepoMock(t)
	defer cleanup()

	repo := NewJobCardRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM qc_approvals")).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM dispatch_certificates")).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	qc, err := repo.CountQCApprovals(context.Background(), "card-1")
	require.NoError(t, err)
	require.Equal(t, 2, qc)

	certs, err := repo.CountDispatchCertificates(context.Background(), "card-1")
	require.NoError(t, err)
	require.Equal(t, 1, certs)
	require.NoError(t, mock.ExpectationsWereMet())
}
