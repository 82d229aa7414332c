package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"firmflow/internal/model"
	"firmflow/internal/store"
)

// Documents written with a zone offset must still compare correctly against
// the UTC filter bounds: times are normalized to UTC on write.
func TestRangeFiltersNormalizeOffsetsToUTC(t *testing.T) {
	ctx := context.Background()
	ist := time.FixedZone("IST", 5*3600+1800)

	t.Run("engagement due date", func(t *testing.T) {
		repo := NewEngagementRepository(store.NewMemory())
		// 2025-07-01T03:00+05:30 is 2025-06-30T21:30Z, inside the June
		// window; as raw text it would sort past the upper bound.
		require.NoError(t, repo.Create(ctx, &model.Engagement{
			ID: "eng-1", ClientID: "client-1", Status: model.StatusPending,
			DueDate: time.Date(2025, 7, 1, 3, 0, 0, 0, ist),
		}))

		got, err := repo.FindDueBetween(ctx,
			time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "eng-1", got[0].ID)
	})

	t.Run("recurring next run", func(t *testing.T) {
		repo := NewRecurringEngagementRepository(store.NewMemory())
		require.NoError(t, repo.Create(ctx, &model.RecurringEngagement{
			ID: "tpl-1", ClientID: "client-1", Active: true,
			NextRunDate: time.Date(2025, 7, 1, 1, 0, 0, 0, ist), // 2025-06-30T19:30Z
		}))

		due, err := repo.FindDue(ctx, time.Date(2025, 6, 30, 20, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, due, 1)
	})

	t.Run("timesheet week start", func(t *testing.T) {
		repo := NewTimesheetRepository(store.NewMemory())
		require.NoError(t, repo.Create(ctx, &model.Timesheet{
			ID: "ts-1", EmployeeID: "emp-1",
			WeekStart: time.Date(2025, 7, 1, 2, 0, 0, 0, ist), // 2025-06-30T20:30Z
		}))

		got, err := repo.FindByEmployeeWeekRange(ctx, "emp-1",
			time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, got, 1)
	})
}
