package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ramzi-kassab/floorman-api/internal/models"
)

const jobCardColumns = `id, card_number, bit_serial, customer, status, cutter_count, notes, created_by, deleted_at, created_at, updated_at`

// JobCardRepository provides database access for repair job cards, including
// the soft-delete aware reads and transactional undo writes the retrieval
// engine relies on.
type JobCardRepository struct {
	db *sqlx.DB
}

// NewJobCardRepository creates a new instance of JobCardRepository.
func NewJobCardRepository(db *sqlx.DB) *JobCardRepository {
	return &JobCardRepository{db: db}
}

// GetAny returns a job card by id, soft-deleted rows included. Snapshots and
// undo checks must see deleted cards.
func (r *JobCardRepository) GetAny(ctx context.Context, id string) (*models.JobCard, error) {
	query := `SELECT ` + jobCardColumns + ` FROM job_cards WHERE id = $1`
	var card models.JobCard
	if err := r.db.GetContext(ctx, &card, query, id); err != nil {
		return nil, err
	}
	return &card, nil
}

// CountQCApprovals counts quality sign-offs referencing the card.
func (r *JobCardRepository) CountQCApprovals(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM qc_approvals WHERE job_card_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count qc approvals: %w", err)
	}
	return count, nil
}

// CountDispatchCertificates counts issued certificates referencing the card.
func (r *JobCardRepository) CountDispatchCertificates(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM dispatch_certificates WHERE job_card_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count dispatch certificates: %w", err)
	}
	return count, nil
}

// RestoreTx clears the soft-delete marker inside the completion transaction.
func (r *JobCardRepository) RestoreTx(ctx context.Context, tx sqlx.ExtContext, id string, restoredAt time.Time) error {
	result, err := tx.ExecContext(ctx, `UPDATE job_cards SET deleted_at = NULL, updated_at = $2 WHERE id = $1 AND deleted_at IS NOT NULL`, id, restoredAt)
	if err != nil {
		return fmt.Errorf("restore job card: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check restore rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ArchiveTx re-applies the soft-delete marker inside the completion transaction.
func (r *JobCardRepository) ArchiveTx(ctx context.Context, tx sqlx.ExtContext, id string, archivedAt time.Time) error {
	result, err := tx.ExecContext(ctx, `UPDATE job_cards SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, archivedAt)
	if err != nil {
		return fmt.Errorf("archive job card: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check archive rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RevertTx rewrites the card's mutable fields from a snapshot inside the
// completion transaction.
func (r *JobCardRepository) RevertTx(ctx context.Context, tx sqlx.ExtContext, card *models.JobCard, revertedAt time.Time) error {
	result, err := tx.ExecContext(ctx, `UPDATE job_cards
	SET card_number = $2, bit_serial = $3, customer = $4, status = $5, cutter_count = $6, notes = $7, updated_at = $8
	WHERE id = $1 AND deleted_at IS NULL`,
		card.ID, card.CardNumber, card.BitSerial, card.Customer, card.Status, card.CutterCount, card.Notes, revertedAt)
	if err != nil {
		return fmt.Errorf("revert job card: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check revert rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
