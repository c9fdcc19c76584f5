package models

import "time"

// JobCardStatus tracks a drill bit through the repair floor.
type JobCardStatus string

const (
	JobCardStatusOpen       JobCardStatus = "OPEN"
	JobCardStatusInRepair   JobCardStatus = "IN_REPAIR"
	JobCardStatusQCHold     JobCardStatus = "QC_HOLD"
	JobCardStatusReady      JobCardStatus = "READY"
	JobCardStatusDispatched JobCardStatus = "DISPATCHED"
)

// JobCard is a repair tracking record for one PDC drill bit. Deletion is soft
// (deleted_at) so an undo can restore the row in place.
type JobCard struct {
	ID          string        `db:"id" json:"id"`
	CardNumber  string        `db:"card_number" json:"card_number"`
	BitSerial   string        `db:"bit_serial" json:"bit_serial"`
	Customer    string        `db:"customer" json:"customer"`
	Status      JobCardStatus `db:"status" json:"status"`
	CutterCount int           `db:"cutter_count" json:"cutter_count"`
	Notes       string        `db:"notes" json:"notes"`
	CreatedBy   string        `db:"created_by" json:"created_by"`
	DeletedAt   *time.Time    `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}
