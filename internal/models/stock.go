package models

import "time"

// StockEntryType enumerates inventory movement kinds.
type StockEntryType string

const (
	StockEntryReceipt    StockEntryType = "RECEIPT"
	StockEntryIssue      StockEntryType = "ISSUE"
	StockEntryAdjustment StockEntryType = "ADJUSTMENT"
)

// StockEntry is one inventory movement (cutters, matrix bodies, consumables).
// Reconciled entries are frozen; deletion is soft so undo can restore them.
type StockEntry struct {
	ID         string         `db:"id" json:"id"`
	ItemCode   string         `db:"item_code" json:"item_code"`
	Warehouse  string         `db:"warehouse" json:"warehouse"`
	EntryType  StockEntryType `db:"entry_type" json:"entry_type"`
	Quantity   float64        `db:"quantity" json:"quantity"`
	Reference  string         `db:"reference" json:"reference"`
	Reconciled bool           `db:"reconciled" json:"reconciled"`
	CreatedBy  string         `db:"created_by" json:"created_by"`
	DeletedAt  *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}
