package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ramzi-kassab/floorman-api/internal/models"
)

// Type tags used in (type, id) target references.
const (
	TargetTypeJobCard    = "job_card"
	TargetTypeStockEntry = "stock_entry"
)

type jobCardStore interface {
	GetAny(ctx context.Context, id string) (*models.JobCard, error)
	CountQCApprovals(ctx context.Context, id string) (int, error)
	CountDispatchCertificates(ctx context.Context, id string) (int, error)
	RestoreTx(ctx context.Context, tx sqlx.ExtContext, id string, restoredAt time.Time) error
	ArchiveTx(ctx context.Context, tx sqlx.ExtContext, id string, archivedAt time.Time) error
	RevertTx(ctx context.Context, tx sqlx.ExtContext, card *models.JobCard, revertedAt time.Time) error
}

// JobCardTarget makes repair job cards retrievable. Undoing a DELETE restores
// the soft-deleted row; undoing an EDIT rewrites the mutable fields from the
// snapshot; undoing a RESTORE re-archives the card.
type JobCardTarget struct {
	store jobCardStore
	now   func() time.Time
}

// NewJobCardTarget constructs the capability around the job card repository.
func NewJobCardTarget(store jobCardStore) *JobCardTarget {
	return &JobCardTarget{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// TypeTag implements Retrievable.
func (t *JobCardTarget) TypeTag() string { return TargetTypeJobCard }

// Snapshot implements Retrievable.
func (t *JobCardTarget) Snapshot(ctx context.Context, id string) ([]byte, error) {
	card, err := t.store.GetAny(ctx, id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(card)
}

// Dependencies implements Retrievable. QC sign-offs and dispatch certificates
// both reference job cards and survive their deletion; either routes the
// request to manual review.
func (t *JobCardTarget) Dependencies(ctx context.Context, id string) ([]models.DependencyDescriptor, error) {
	var deps []models.DependencyDescriptor
	qc, err := t.store.CountQCApprovals(ctx, id)
	if err != nil {
		return nil, err
	}
	if qc > 0 {
		deps = append(deps, models.DependencyDescriptor{
			Relation:    "qc_approvals",
			Count:       qc,
			Description: "quality sign-offs reference this job card",
		})
	}
	certs, err := t.store.CountDispatchCertificates(ctx, id)
	if err != nil {
		return nil, err
	}
	if certs > 0 {
		deps = append(deps, models.DependencyDescriptor{
			Relation:    "dispatch_certificates",
			Count:       certs,
			Description: "dispatch certificates reference this job card",
		})
	}
	return deps, nil
}

// Blockers implements Retrievable.
func (t *JobCardTarget) Blockers(ctx context.Context, id string, action models.RetrievalAction) ([]string, error) {
	card, err := t.store.GetAny(ctx, id)
	if err != nil {
		return nil, err
	}
	var blockers []string
	if card.Status == models.JobCardStatusDispatched {
		blockers = append(blockers, "job card has been dispatched and is frozen")
	}
	switch action {
	case models.RetrievalActionDelete:
		if card.DeletedAt == nil {
			blockers = append(blockers, "job card is not deleted; nothing to restore")
		}
	case models.RetrievalActionRestore:
		if card.DeletedAt != nil {
			blockers = append(blockers, "job card is already deleted")
		}
	default:
		if card.DeletedAt != nil {
			blockers = append(blockers, "job card is deleted; restore it before reverting edits")
		}
	}
	return blockers, nil
}

// Undo implements Retrievable.
func (t *JobCardTarget) Undo(ctx context.Context, tx sqlx.ExtContext, request *models.RetrievalRequest) error {
	now := t.now()
	switch request.Action {
	case models.RetrievalActionDelete:
		return t.store.RestoreTx(ctx, tx, request.TargetID, now)
	case models.RetrievalActionRestore:
		return t.store.ArchiveTx(ctx, tx, request.TargetID, now)
	case models.RetrievalActionEdit, models.RetrievalActionUndo:
		var card models.JobCard
		if err := json.Unmarshal(request.OriginalData, &card); err != nil {
			return fmt.Errorf("decode job card snapshot: %w", err)
		}
		if card.ID != request.TargetID {
			return fmt.Errorf("snapshot id %s does not match target %s", card.ID, request.TargetID)
		}
		return t.store.RevertTx(ctx, tx, &card, now)
	default:
		return fmt.Errorf("unsupported action %s for job cards", request.Action)
	}
}

type stockEntryStore interface {
	GetAny(ctx context.Context, id string) (*models.StockEntry, error)
	CountConsumptions(ctx context.Context, id string) (int, error)
	RestoreTx(ctx context.Context, tx sqlx.ExtContext, id string, restoredAt time.Time) error
	VoidTx(ctx context.Context, tx sqlx.ExtContext, id string, voidedAt time.Time) error
	RevertTx(ctx context.Context, tx sqlx.ExtContext, entry *models.StockEntry, revertedAt time.Time) error
}

// StockEntryTarget makes inventory movements retrievable. Reconciled entries
// are frozen and block every action.
type StockEntryTarget struct {
	store stockEntryStore
	now   func() time.Time
}

// NewStockEntryTarget constructs the capability around the stock entry repository.
func NewStockEntryTarget(store stockEntryStore) *StockEntryTarget {
	return &StockEntryTarget{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// TypeTag implements Retrievable.
func (t *StockEntryTarget) TypeTag() string { return TargetTypeStockEntry }

// Snapshot implements Retrievable.
func (t *StockEntryTarget) Snapshot(ctx context.Context, id string) ([]byte, error) {
	entry, err := t.store.GetAny(ctx, id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entry)
}

// Dependencies implements Retrievable.
func (t *StockEntryTarget) Dependencies(ctx context.Context, id string) ([]models.DependencyDescriptor, error) {
	consumptions, err := t.store.CountConsumptions(ctx, id)
	if err != nil {
		return nil, err
	}
	if consumptions == 0 {
		return nil, nil
	}
	return []models.DependencyDescriptor{{
		Relation:    "stock_consumptions",
		Count:       consumptions,
		Description: "job card consumptions draw from this entry",
	}}, nil
}

// Blockers implements Retrievable.
func (t *StockEntryTarget) Blockers(ctx context.Context, id string, action models.RetrievalAction) ([]string, error) {
	entry, err := t.store.GetAny(ctx, id)
	if err != nil {
		return nil, err
	}
	var blockers []string
	if entry.Reconciled {
		blockers = append(blockers, "stock entry has been reconciled and is frozen")
	}
	switch action {
	case models.RetrievalActionDelete:
		if entry.DeletedAt == nil {
			blockers = append(blockers, "stock entry is not deleted; nothing to restore")
		}
	case models.RetrievalActionRestore:
		if entry.DeletedAt != nil {
			blockers = append(blockers, "stock entry is already deleted")
		}
	default:
		if entry.DeletedAt != nil {
			blockers = append(blockers, "stock entry is deleted; restore it before reverting edits")
		}
	}
	return blockers, nil
}

// Undo implements Retrievable.
func (t *StockEntryTarget) Undo(ctx context.Context, tx sqlx.ExtContext, request *models.RetrievalRequest) error {
	now := t.now()
	switch request.Action {
	case models.RetrievalActionDelete:
		return t.store.RestoreTx(ctx, tx, request.TargetID, now)
	case models.RetrievalActionRestore:
		return t.store.VoidTx(ctx, tx, request.TargetID, now)
	case models.RetrievalActionEdit, models.RetrievalActionUndo:
		var entry models.StockEntry
		if err := json.Unmarshal(request.OriginalData, &entry); err != nil {
			return fmt.Errorf("decode stock entry snapshot: %w", err)
		}
		if entry.ID != request.TargetID {
			return fmt.Errorf("snapshot id %s does not match target %s", entry.ID, request.TargetID)
		}
		return t.store.RevertTx(ctx, tx, &entry, now)
	default:
		return fmt.Errorf("unsupported action %s for stock entries", request.Action)
	}
}
