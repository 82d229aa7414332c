package tools

import (
	"context"
	"time"

	"firmflow/internal/model"
	"firmflow/internal/schema"
)

// DefaultEngagementHours is the fallback estimate when neither the
// engagement nor its type declares hours.
const DefaultEngagementHours = 10.0

func newWorkloadCalculator(d Deps) *Tool {
	return &Tool{
		Name: ToolWorkloadCalculator,
		Description: "For every employee except the excluded one, total the hours implied by engagements due " +
			"between the start of the current month and the window end. Uses budgeted hours when set, " +
			"else the engagement type's standard hours. Cancelled engagements never count; Completed ones do.",
		Input: &schema.Object{
			Name: "workload_calculator_input",
			Fields: []schema.Field{
				{Name: "excludeEmployeeId", Type: schema.TypeString, Required: true},
				{Name: "windowEnd", Type: schema.TypeString, Required: true, Description: "Window end date, yyyy-MM-dd."},
			},
		},
		Output: &schema.Object{
			Name: "workload_calculator_output",
			Fields: []schema.Field{
				{Name: "workloads", Type: schema.TypeArray, Required: true,
					Items: &schema.Field{Type: schema.TypeObject, Properties: &schema.Object{
						Name: "workload",
						Fields: []schema.Field{
							{Name: "employeeId", Type: schema.TypeString, Required: true},
							{Name: "name", Type: schema.TypeString, Required: true},
							{Name: "totalHours", Type: schema.TypeNumber, Required: true},
						},
					}}},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			windowEnd, err := parseDate(args, "windowEnd")
			if err != nil {
				return nil, err
			}
			exclude := str(args, "excludeEmployeeId")

			now := d.now()
			monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

			employees, err := d.Employees.All(ctx)
			if err != nil {
				return nil, err
			}

			engagements, err := d.Engagements.FindDueBetween(ctx, monthStart,
				windowEnd.Add(24*time.Hour-time.Nanosecond))
			if err != nil {
				return nil, err
			}

			hoursByEmployee := make(map[string]float64)
			typeCache := make(map[string]*model.EngagementType)

			for i := range engagements {
				eng := &engagements[i]
				if eng.Status == model.StatusCancelled {
					continue
				}

				hours, err := estimateHours(ctx, d, eng, typeCache)
				if err != nil {
					return nil, err
				}
				for _, id := range eng.AssignedTo {
					if id == exclude {
						continue
					}
					hoursByEmployee[id] += hours
				}
			}

			out := make([]any, 0, len(employees))
			for i := range employees {
				e := &employees[i]
				if e.ID == exclude {
					continue
				}
				out = append(out, map[string]any{
					"employeeId": e.ID,
					"name":       e.Name,
					"totalHours": hoursByEmployee[e.ID],
				})
			}
			return map[string]any{"workloads": out}, nil
		},
	}
}

// estimateHours picks budgeted hours, else the type's standard hours, else
// the fixed fallback.
func estimateHours(ctx context.Context, d Deps, eng *model.Engagement, typeCache map[string]*model.EngagementType) (float64, error) {
	if eng.BudgetedHours != nil {
		return *eng.BudgetedHours, nil
	}

	if eng.TypeID != "" {
		t, ok := typeCache[eng.TypeID]
		if !ok {
			var err error
			t, err = d.EngagementTypes.FindByID(ctx, eng.TypeID)
			if err != nil {
				// 类型缺失时退回固定估算，不视为错误
				t = nil
			}
			typeCache[eng.TypeID] = t
		}
		if t != nil && t.StandardHours > 0 {
			return t.StandardHours, nil
		}
	}

	return DefaultEngagementHours, nil
}
