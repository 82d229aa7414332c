package tools

import (
	"context"
	"fmt"
	"time"

	"firmflow/internal/schema"
)

func newMonthlyTimesheets(d Deps) *Tool {
	return &Tool{
		Name:        ToolMonthlyTimesheets,
		Description: "Fetch all of an employee's timesheets whose week-start falls within the given calendar month.",
		Input: &schema.Object{
			Name: "monthly_timesheets_input",
			Fields: []schema.Field{
				{Name: "employeeId", Type: schema.TypeString, Required: true},
				{Name: "period", Type: schema.TypeString, Required: true, Description: "Calendar month, yyyy-MM."},
			},
		},
		Output: &schema.Object{
			Name: "monthly_timesheets_output",
			Fields: []schema.Field{
				{Name: "timesheets", Type: schema.TypeArray, Required: true,
					Items: &schema.Field{Type: schema.TypeObject, Properties: &schema.Object{
						Name: "timesheet",
						Fields: []schema.Field{
							{Name: "id", Type: schema.TypeString, Required: true},
							{Name: "weekStart", Type: schema.TypeString, Required: true},
							{Name: "totalHours", Type: schema.TypeNumber, Required: true},
						},
					}}},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			from, to, err := MonthBounds(str(args, "period"))
			if err != nil {
				return nil, err
			}

			sheets, err := d.Timesheets.FindByEmployeeWeekRange(ctx, str(args, "employeeId"), from, to)
			if err != nil {
				return nil, err
			}

			out := make([]any, 0, len(sheets))
			for i := range sheets {
				t := &sheets[i]
				out = append(out, map[string]any{
					"id":         t.ID,
					"weekStart":  t.WeekStart.UTC().Format(time.RFC3339),
					"totalHours": t.TotalHours(),
				})
			}
			return map[string]any{"timesheets": out}, nil
		},
	}
}

// MonthBounds returns the inclusive [first instant, last instant] of a
// yyyy-MM month.
func MonthBounds(period string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("period: expected yyyy-MM, got %q", period)
	}
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end, nil
}
