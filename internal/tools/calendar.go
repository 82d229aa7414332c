package tools

import (
	"context"
	"time"

	"firmflow/internal/schema"
	"firmflow/internal/store"
)

func newConflictingEvents(d Deps) *Tool {
	return &Tool{
		Name:        ToolConflictingEvents,
		Description: "Find calendar events where the employee is an attendee and the event starts within the date range.",
		Input: &schema.Object{
			Name: "conflicting_events_input",
			Fields: []schema.Field{
				{Name: "employeeId", Type: schema.TypeString, Required: true},
				{Name: "from", Type: schema.TypeString, Required: true, Description: "Range start, yyyy-MM-dd."},
				{Name: "to", Type: schema.TypeString, Required: true, Description: "Range end, yyyy-MM-dd (inclusive)."},
			},
		},
		Output: &schema.Object{
			Name: "conflicting_events_output",
			Fields: []schema.Field{
				{Name: "events", Type: schema.TypeArray, Required: true,
					Items: &schema.Field{Type: schema.TypeObject, Properties: &schema.Object{
						Name: "event",
						Fields: []schema.Field{
							{Name: "id", Type: schema.TypeString, Required: true},
							{Name: "title", Type: schema.TypeString, Required: true},
							{Name: "start", Type: schema.TypeString, Required: true},
							{Name: "engagementId", Type: schema.TypeString,
								Description: "Present only when the event is linked to an engagement."},
						},
					}}},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			from, err := parseDate(args, "from")
			if err != nil {
				return nil, err
			}
			to, err := parseDate(args, "to")
			if err != nil {
				return nil, err
			}
			// 包含 to 当天的全部事件
			events, err := d.Calendar.FindByAttendeeInRange(ctx, str(args, "employeeId"),
				from, to.Add(24*time.Hour-time.Nanosecond))
			if err != nil {
				return nil, err
			}

			out := make([]any, 0, len(events))
			for _, e := range events {
				entry := map[string]any{
					"id":    e.ID,
					"title": e.Title,
					"start": e.Start.UTC().Format(time.RFC3339),
				}
				if e.EngagementID != "" {
					entry["engagementId"] = e.EngagementID
				}
				out = append(out, entry)
			}
			return map[string]any{"events": out}, nil
		},
	}
}

func newReplacementColleagues(d Deps) *Tool {
	return &Tool{
		Name:        ToolReplacementColleagues,
		Description: "List the other employees assigned to an engagement, excluding the given employee.",
		Input: &schema.Object{
			Name: "replacement_colleagues_input",
			Fields: []schema.Field{
				{Name: "engagementId", Type: schema.TypeString, Required: true},
				{Name: "excludeEmployeeId", Type: schema.TypeString, Required: true},
			},
		},
		Output: &schema.Object{
			Name: "replacement_colleagues_output",
			Fields: []schema.Field{
				{Name: "colleagues", Type: schema.TypeArray, Required: true,
					Items: &schema.Field{Type: schema.TypeObject}},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			eng, err := d.Engagements.FindByID(ctx, str(args, "engagementId"))
			if err != nil {
				return nil, err
			}

			exclude := str(args, "excludeEmployeeId")
			out := []any{}
			for _, id := range eng.AssignedTo {
				if id == exclude {
					continue
				}
				emp, err := d.Employees.FindByID(ctx, id)
				if store.IsNotFound(err) {
					// 挂空的 assignee id，跳过
					continue
				}
				if err != nil {
					return nil, err
				}
				out = append(out, employeeSummary(emp))
			}
			return map[string]any{"colleagues": out}, nil
		},
	}
}
