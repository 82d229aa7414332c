package model

import "time"

// Todo types created by flow side effects.
const (
	TodoGeneralTask         = "GENERAL_TASK"
	TodoPerformanceReview   = "PERFORMANCE_REVIEW"
	TodoFeeRevisionApproval = "FEE_REVISION_APPROVAL"
	TodoLeaveCoverage       = "LEAVE_COVERAGE"
)

// Related entity kinds a todo may point at.
const (
	RelatedClient     = "client"
	RelatedEngagement = "engagement"
	RelatedEmployee   = "employee"
)

// Todo is an actionable follow-up record. Flows only ever append todos,
// never mutate or remove existing ones.
type Todo struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Text        string    `json:"text"`
	AssignedTo  []string  `json:"assignedTo"`
	RelatedType string    `json:"relatedType,omitempty"`
	RelatedID   string    `json:"relatedId,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy,omitempty"` // flow name for generated todos
}
