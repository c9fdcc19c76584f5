package models

import "time"

// RetrievalAction enumerates what kind of change an undo request reverses.
type RetrievalAction string

const (
	RetrievalActionDelete  RetrievalAction = "DELETE"
	RetrievalActionEdit    RetrievalAction = "EDIT"
	RetrievalActionUndo    RetrievalAction = "UNDO"
	RetrievalActionRestore RetrievalAction = "RESTORE"
)

// Valid reports whether the action is one of the supported kinds.
func (a RetrievalAction) Valid() bool {
	switch a {
	case RetrievalActionDelete, RetrievalActionEdit, RetrievalActionUndo, RetrievalActionRestore:
		return true
	}
	return false
}

// RetrievalStatus captures workflow states for undo requests.
type RetrievalStatus string

const (
	RetrievalStatusPending      RetrievalStatus = "PENDING"
	RetrievalStatusAutoApproved RetrievalStatus = "AUTO_APPROVED"
	RetrievalStatusApproved     RetrievalStatus = "APPROVED"
	RetrievalStatusRejected     RetrievalStatus = "REJECTED"
	RetrievalStatusCompleted    RetrievalStatus = "COMPLETED"
	RetrievalStatusCancelled    RetrievalStatus = "CANCELLED"
)

// Terminal reports whether no further transition may leave the status.
func (s RetrievalStatus) Terminal() bool {
	switch s {
	case RetrievalStatusRejected, RetrievalStatusCompleted, RetrievalStatusCancelled:
		return true
	}
	return false
}

// Open reports whether the request still holds the per-target exclusivity slot.
func (s RetrievalStatus) Open() bool {
	switch s {
	case RetrievalStatusPending, RetrievalStatusAutoApproved, RetrievalStatusApproved:
		return true
	}
	return false
}

// OpenStatuses lists statuses counted by the one-open-request-per-target guard.
var OpenStatuses = []RetrievalStatus{
	RetrievalStatusPending,
	RetrievalStatusAutoApproved,
	RetrievalStatusApproved,
}

// DependencyDescriptor describes one relation blocking (or flagged against) an undo.
type DependencyDescriptor struct {
	Relation    string `json:"relation"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// RetrievalRequest is one undo attempt against exactly one target record.
// original_data is captured at creation and never overwritten afterwards;
// rows are never deleted, cancellation is a terminal status.
type RetrievalRequest struct {
	ID                string          `db:"id" json:"id"`
	TargetType        string          `db:"target_type" json:"targetType"`
	TargetID          string          `db:"target_id" json:"targetId"`
	EmployeeID        string          `db:"employee_id" json:"employeeId"`
	SupervisorID      *string         `db:"supervisor_id" json:"supervisorId,omitempty"`
	Action            RetrievalAction `db:"action" json:"action"`
	Reason            string          `db:"reason" json:"reason"`
	Status            RetrievalStatus `db:"status" json:"status"`
	OriginalData      []byte          `db:"original_data" json:"originalData"`
	HasDependents     bool            `db:"has_dependents" json:"hasDependents"`
	DependencyDetails []byte          `db:"dependency_details" json:"dependencyDetails,omitempty"`
	DecidedBy         *string         `db:"decided_by" json:"decidedBy,omitempty"`
	DecisionNote      *string         `db:"decision_note" json:"decisionNote,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	DecidedAt         *time.Time      `db:"decided_at" json:"decidedAt,omitempty"`
	CompletedAt       *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
}

// TimeElapsed returns how long the request waited for a decision.
func (r *RetrievalRequest) TimeElapsed(now time.Time) time.Duration {
	if r.DecidedAt != nil {
		return r.DecidedAt.Sub(r.CreatedAt)
	}
	return now.Sub(r.CreatedAt)
}

// RetrievalFilter constrains listing queries.
type RetrievalFilter struct {
	Status     []RetrievalStatus
	TargetType string
	TargetID   string
	EmployeeID string
	Supervisor string
	Limit      int
	Offset     int
}

// MetricPeriod enumerates accuracy aggregation buckets.
type MetricPeriod string

const (
	PeriodDaily     MetricPeriod = "DAILY"
	PeriodWeekly    MetricPeriod = "WEEKLY"
	PeriodMonthly   MetricPeriod = "MONTHLY"
	PeriodQuarterly MetricPeriod = "QUARTERLY"
	PeriodYearly    MetricPeriod = "YEARLY"
)

// Valid reports whether the period is a supported bucket type.
func (p MetricPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// AllMetricPeriods lists every bucket type recomputed by the scheduler.
var AllMetricPeriods = []MetricPeriod{
	PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly,
}

// RetrievalMetric is a pre-aggregated accuracy snapshot, one row per
// employee x period_type x period_start, replaced on recompute.
type RetrievalMetric struct {
	ID                string       `db:"id" json:"id"`
	EmployeeID        string       `db:"employee_id" json:"employeeId"`
	PeriodType        MetricPeriod `db:"period_type" json:"periodType"`
	PeriodStart       time.Time    `db:"period_start" json:"periodStart"`
	PeriodEnd         time.Time    `db:"period_end" json:"periodEnd"`
	TotalActions      int          `db:"total_actions" json:"totalActions"`
	RetrievalRequests int          `db:"retrieval_requests" json:"retrievalRequests"`
	AccuracyRate      float64      `db:"accuracy_rate" json:"accuracyRate"`
	ComputedAt        time.Time    `db:"computed_at" json:"computedAt"`
}

// Notification is an in-app message persisted by the async dispatcher.
type Notification struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"userId"`
	Subject   string     `db:"subject" json:"subject"`
	Body      string     `db:"body" json:"body"`
	RequestID *string    `db:"request_id" json:"requestId,omitempty"`
	ReadAt    *time.Time `db:"read_at" json:"readAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}
