package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ramzi-kassab/floorman-api/internal/models"
	appErrors "github.com/ramzi-kassab/floorman-api/pkg/errors"
)

const retrievalColumns = `id, target_type, target_id, employee_id, supervisor_id, action, reason, status,
       original_data, has_dependents, dependency_details, decided_by, decision_note,
       created_at, decided_at, completed_at`

// RetrievalRepository persists undo request workflow data. A partial unique
// index on (target_type, target_id) over open statuses backs the
// one-open-request-per-target invariant; concurrent creations race on the
// index, not on a check-then-insert.
type RetrievalRepository struct {
	db *sqlx.DB
}

// NewRetrievalRepository constructs the repository.
func NewRetrievalRepository(db *sqlx.DB) *RetrievalRepository {
	return &RetrievalRepository{db: db}
}

// Create inserts a new retrieval request row.
func (r *RetrievalRepository) Create(ctx context.Context, request *models.RetrievalRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RetrievalStatusPending
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO retrieval_requests
	(id, target_type, target_id, employee_id, supervisor_id, action, reason, status, original_data, has_dependents, dependency_details, decided_by, decision_note, created_at, decided_at, completed_at)
	VALUES (:id, :target_type, :target_id, :employee_id, :supervisor_id, :action, :reason, :status, :original_data, :has_dependents, :dependency_details, :decided_by, :decision_note, :created_at, :decided_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("an open retrieval request already exists for %s/%s", request.TargetType, request.TargetID))
		}
		return fmt.Errorf("create retrieval request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *RetrievalRepository) GetByID(ctx context.Context, id string) (*models.RetrievalRequest, error) {
	query := `SELECT ` + retrievalColumns + ` FROM retrieval_requests WHERE id = $1`
	var request models.RetrievalRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter (newest first).
func (r *RetrievalRepository) List(ctx context.Context, filter models.RetrievalFilter) ([]models.RetrievalRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT ` + retrievalColumns + ` FROM retrieval_requests`)

	conditions := make([]string, 0, 5)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.TargetType != "" {
		args = append(args, filter.TargetType)
		conditions = append(conditions, fmt.Sprintf("target_type = $%d", len(args)))
	}
	if filter.TargetID != "" {
		args = append(args, filter.TargetID)
		conditions = append(conditions, fmt.Sprintf("target_id = $%d", len(args)))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if filter.Supervisor != "" {
		args = append(args, filter.Supervisor)
		conditions = append(conditions, fmt.Sprintf("supervisor_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.RetrievalRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list retrieval requests: %w", err)
	}
	return requests, nil
}

// ListPending returns pending requests oldest first for the sweep.
func (r *RetrievalRepository) ListPending(ctx context.Context, limit int) ([]models.RetrievalRequest, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	query := `SELECT ` + retrievalColumns + ` FROM retrieval_requests
	WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	var requests []models.RetrievalRequest
	if err := r.db.SelectContext(ctx, &requests, query, models.RetrievalStatusPending, limit); err != nil {
		return nil, fmt.Errorf("list pending retrieval requests: %w", err)
	}
	return requests, nil
}

// CountOpenForTarget counts requests still holding the target's exclusivity slot.
func (r *RetrievalRepository) CountOpenForTarget(ctx context.Context, targetType, targetID string) (int, error) {
	const query = `SELECT COUNT(1) FROM retrieval_requests
	WHERE target_type = $1 AND target_id = $2 AND status IN ($3, $4, $5)`
	var count int
	err := r.db.GetContext(ctx, &count, query, targetType, targetID,
		models.RetrievalStatusPending, models.RetrievalStatusAutoApproved, models.RetrievalStatusApproved)
	if err != nil {
		return 0, fmt.Errorf("count open retrieval requests: %w", err)
	}
	return count, nil
}

// CountByEmployee counts requests submitted within the window, feeding accuracy metrics.
func (r *RetrievalRepository) CountByEmployee(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(1) FROM retrieval_requests
	WHERE employee_id = $1 AND created_at >= $2 AND created_at < $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, employeeID, from, to); err != nil {
		return 0, fmt.Errorf("count employee retrieval requests: %w", err)
	}
	return count, nil
}

// DecideRetrievalParams groups the mutable columns of a decision.
type DecideRetrievalParams struct {
	ID        string
	Status    models.RetrievalStatus
	DecidedBy *string
	DecidedAt time.Time
	Note      *string
}

// Decide applies a decision with a compare-and-swap on PENDING. Losing a race
// (or deciding an already-terminal request) surfaces as sql.ErrNoRows so the
// caller can map it to a state conflict.
func (r *RetrievalRepository) Decide(ctx context.Context, params DecideRetrievalParams) error {
	query := fmt.Sprintf(`UPDATE retrieval_requests
	SET status = :status, decided_by = :decided_by, decided_at = :decided_at, decision_note = :decision_note
	WHERE id = :id AND status = '%s'`, models.RetrievalStatusPending)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":            params.ID,
		"status":        params.Status,
		"decided_by":    params.DecidedBy,
		"decided_at":    params.DecidedAt,
		"decision_note": params.Note,
	})
	if err != nil {
		return fmt.Errorf("decide retrieval request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check decide rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Complete marks the request COMPLETED and runs the undo action in the same
// transaction. Either both are committed or neither is visible. The status
// update doubles as the row lock: a second completer sees zero rows.
func (r *RetrievalRepository) Complete(ctx context.Context, id string, completedAt time.Time, undo func(ctx context.Context, tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin completion: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `UPDATE retrieval_requests
	SET status = $1, completed_at = $2
	WHERE id = $3 AND status IN ($4, $5)`,
		models.RetrievalStatusCompleted, completedAt, id,
		models.RetrievalStatusApproved, models.RetrievalStatusAutoApproved)
	if err != nil {
		return fmt.Errorf("complete retrieval request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check completion rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if undo != nil {
		if err := undo(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit completion: %w", err)
	}
	return nil
}
