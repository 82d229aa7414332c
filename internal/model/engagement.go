package model

import "time"

// Engagement statuses form a fixed ordered set. Engagements are never hard
// deleted, only moved to Completed or Cancelled.
const (
	StatusPending           = "Pending"
	StatusAwaitingDocuments = "Awaiting Documents"
	StatusInProcess         = "In Process"
	StatusPartnerReview     = "Partner Review"
	StatusOnHold            = "On Hold"
	StatusCompleted         = "Completed"
	StatusCancelled         = "Cancelled"
)

// EngagementStatuses lists every status in lifecycle order.
var EngagementStatuses = []string{
	StatusPending,
	StatusAwaitingDocuments,
	StatusInProcess,
	StatusPartnerReview,
	StatusOnHold,
	StatusCompleted,
	StatusCancelled,
}

// ActiveStatuses are the non-terminal statuses. Reallocation and leave
// handling only consider engagements in one of these.
var ActiveStatuses = []string{
	StatusPending,
	StatusAwaitingDocuments,
	StatusInProcess,
	StatusPartnerReview,
	StatusOnHold,
}

// IsActiveStatus reports whether s is a non-terminal engagement status.
func IsActiveStatus(s string) bool {
	for _, a := range ActiveStatuses {
		if a == s {
			return true
		}
	}
	return false
}

// Engagement is one unit of billable client work.
type Engagement struct {
	ID            string    `json:"id"`
	ClientID      string    `json:"clientId"`
	TypeID        string    `json:"typeId"`
	Status        string    `json:"status"`
	DueDate       time.Time `json:"dueDate"`
	AssignedTo    []string  `json:"assignedTo"`
	ReportedTo    string    `json:"reportedTo,omitempty"`
	Fee           float64   `json:"fee"`
	BudgetedHours *float64  `json:"budgetedHours,omitempty"`
	RecurringID   string    `json:"recurringId,omitempty"`
}

// IsAssigned reports whether employeeID is in the assignee list.
func (e *Engagement) IsAssigned(employeeID string) bool {
	for _, id := range e.AssignedTo {
		if id == employeeID {
			return true
		}
	}
	return false
}

// Recurrence cadences for engagement types and recurring templates.
const (
	CadenceMonthly   = "Monthly"
	CadenceQuarterly = "Quarterly"
	CadenceYearly    = "Yearly"
)

// EngagementType is a catalog entry for a category of work.
type EngagementType struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	StandardHours float64 `json:"standardHours"`
	Cadence       string  `json:"cadence,omitempty"`
}

// RecurringEngagement is a template from which periodic engagements are
// materialized by the scheduler.
type RecurringEngagement struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId"`
	TypeID      string    `json:"typeId"`
	Fee         float64   `json:"fee"`
	AssignedTo  []string  `json:"assignedTo"`
	ReportedTo  string    `json:"reportedTo,omitempty"`
	Cadence     string    `json:"cadence"`
	NextRunDate time.Time `json:"nextRunDate"`
	Active      bool      `json:"active"`
}
