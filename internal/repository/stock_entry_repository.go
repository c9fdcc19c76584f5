package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ramzi-kassab/floorman-api/internal/models"
)

const stockEntryColumns = `id, item_code, warehouse, entry_type, quantity, reference, reconciled, created_by, deleted_at, created_at, updated_at`

// StockEntryRepository provides database access for inventory movements.
type StockEntryRepository struct {
	db *sqlx.DB
}

// NewStockEntryRepository creates a new instance of StockEntryRepository.
func NewStockEntryRepository(db *sqlx.DB) *StockEntryRepository {
	return &StockEntryRepository{db: db}
}

// GetAny returns a stock entry by id, soft-deleted rows included.
func (r *StockEntryRepository) GetAny(ctx context.Context, id string) (*models.StockEntry, error) {
	query := `SELECT ` + stockEntryColumns + ` FROM stock_entries WHERE id = $1`
	var entry models.StockEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CountConsumptions counts downstream consumption links referencing the entry.
func (r *StockEntryRepository) CountConsumptions(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM stock_consumptions WHERE stock_entry_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count stock consumptions: %w", err)
	}
	return count, nil
}

// RestoreTx clears the soft-delete marker inside the completion transaction.
func (r *StockEntryRepository) RestoreTx(ctx context.Context, tx sqlx.ExtContext, id string, restoredAt time.Time) error {
	result, err := tx.ExecContext(ctx, `UPDATE stock_entries SET deleted_at = NULL, updated_at = $2 WHERE id = $1 AND deleted_at IS NOT NULL`, id, restoredAt)
	if err != nil {
		return fmt.Errorf("restore stock entry: %w", err)
	}
	return requireRows(result)
}

// VoidTx re-applies the soft-delete marker inside the completion transaction.
func (r *StockEntryRepository) VoidTx(ctx context.Context, tx sqlx.ExtContext, id string, voidedAt time.Time) error {
	result, err := tx.ExecContext(ctx, `UPDATE stock_entries SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, voidedAt)
	if err != nil {
		return fmt.Errorf("void stock entry: %w", err)
	}
	return requireRows(result)
}

// RevertTx rewrites the entry's mutable fields from a snapshot inside the
// completion transaction.
func (r *StockEntryRepository) RevertTx(ctx context.Context, tx sqlx.ExtContext, entry *models.StockEntry, revertedAt time.Time) error {
	result, err := tx.ExecContext(ctx, `UPDATE stock_entries
	SET item_code = $2, warehouse = $3, entry_type = $4, quantity = $5, reference = $6, updated_at = $7
	WHERE id = $1 AND deleted_at IS NULL`,
		entry.ID, entry.ItemCode, entry.Warehouse, entry.EntryType, entry.Quantity, entry.Reference, revertedAt)
	if err != nil {
		return fmt.Errorf("revert stock entry: %w", err)
	}
	return requireRows(result)
}

func requireRows(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
