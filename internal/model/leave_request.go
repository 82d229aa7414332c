package model

import "time"

// Leave request statuses.
const (
	LeavePending  = "Pending"
	LeaveApproved = "Approved"
	LeaveRejected = "Rejected"
)

// LeaveRequest is an employee's absence window. The leave flow only ever
// reads approved requests.
type LeaveRequest struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
}
