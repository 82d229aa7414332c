package model

import "time"

// CalendarEvent is a scheduled meeting, optionally linked to an engagement.
type CalendarEvent struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	AttendeeIDs  []string  `json:"attendeeIds"`
	EngagementID string    `json:"engagementId,omitempty"`
}
