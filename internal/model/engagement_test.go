package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsActiveStatus(t *testing.T) {
	for _, s := range ActiveStatuses {
		require.True(t, IsActiveStatus(s), s)
	}
	require.False(t, IsActiveStatus(StatusCompleted))
	require.False(t, IsActiveStatus(StatusCancelled))
	require.False(t, IsActiveStatus("Archived"))
}

func TestEmployeeRolesAndDepartment(t *testing.T) {
	e := &Employee{ID: "e1", Roles: []string{"Audit", RolePartner}}
	require.True(t, e.HasRole("Audit"))
	require.True(t, e.HasRole(RolePartner))
	require.False(t, e.HasRole(RoleAdmin))
	require.Equal(t, "Audit", e.Department())

	require.Empty(t, (&Employee{}).Department())
}

func TestEngagementIsAssigned(t *testing.T) {
	e := &Engagement{AssignedTo: []string{"a", "b"}}
	require.True(t, e.IsAssigned("a"))
	require.False(t, e.IsAssigned("c"))
}

func TestTimesheetTotalHours(t *testing.T) {
	ts := &Timesheet{Entries: []TimesheetEntry{
		{EngagementID: "e1", Hours: 7.5},
		{EngagementID: "e2", Hours: 2},
	}}
	require.Equal(t, 9.5, ts.TotalHours())
}
