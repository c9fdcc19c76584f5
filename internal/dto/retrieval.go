package dto

import (
	"time"

	"github.com/ramzi-kassab/floorman-api/internal/models"
)

// CreateRetrievalRequest payload for submitting an undo request.
type CreateRetrievalRequest struct {
	TargetType string                 `json:"targetType" validate:"required"`
	TargetID   string                 `json:"targetId" validate:"required"`
	Action     models.RetrievalAction `json:"action" validate:"required"`
	Reason     string                 `json:"reason" validate:"required"`
	// Force lets supervisors and admins create a request for a target with
	// dependent records; such requests always take the manual review path.
	Force bool `json:"force"`
}

// ApproveRetrievalRequest carries the optional supervisor note.
type ApproveRetrievalRequest struct {
	Note string `json:"note"`
}

// RejectRetrievalRequest captures the mandatory rejection reason.
type RejectRetrievalRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RetrievalQuery mirrors supported listing filters.
type RetrievalQuery struct {
	Status     []models.RetrievalStatus
	TargetType string
	EmployeeID string
	Limit      int
	Offset     int
}

// RetrievalEligibility reports whether a target can currently be retrieved.
type RetrievalEligibility struct {
	Retrievable bool     `json:"retrievable"`
	Reasons     []string `json:"reasons,omitempty"`
}

// AccuracySummary is the read-only aggregation result for one period window.
type AccuracySummary struct {
	EmployeeID        string              `json:"employeeId"`
	PeriodType        models.MetricPeriod `json:"periodType"`
	PeriodStart       time.Time           `json:"periodStart"`
	PeriodEnd         time.Time           `json:"periodEnd"`
	TotalActions      int                 `json:"totalActions"`
	RetrievalRequests int                 `json:"retrievalRequests"`
	AccuracyRate      float64             `json:"accuracyRate"`
}

// SweepResult summarises one auto-approval sweep run.
type SweepResult struct {
	Scanned  int `json:"scanned"`
	Approved int `json:"approved"`
}
