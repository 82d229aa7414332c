package model

import "time"

// TimesheetEntry is the hours one employee logged against one engagement.
type TimesheetEntry struct {
	EngagementID string  `json:"engagementId"`
	Hours        float64 `json:"hours"`
}

// Timesheet holds one employee's logged hours for one week.
type Timesheet struct {
	ID         string           `json:"id"`
	EmployeeID string           `json:"employeeId"`
	WeekStart  time.Time        `json:"weekStart"`
	Entries    []TimesheetEntry `json:"entries"`
}

// TotalHours sums all entries.
func (t *Timesheet) TotalHours() float64 {
	var sum float64
	for _, e := range t.Entries {
		sum += e.Hours
	}
	return sum
}
