package flow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"firmflow/internal/llm"
	"firmflow/internal/model"
	"firmflow/internal/schema"
	"firmflow/internal/tools"
)

const leaveInstructions = `You arrange coverage when an employee at a Chartered Accountancy firm
goes on approved leave. Use conflicting_events to find the meetings the
employee has during the leave window. For each meeting tied to an
engagement, use replacement_colleagues to find who else is on that
engagement and pick one replacement. Meetings without an engagement, or
engagements with no other colleague, get a plan entry with no replacement.
Produce exactly one plan entry per conflicting meeting and a short summary
of the whole arrangement.`

var leaveInput = &schema.Object{
	Name: "leave_plan_input",
	Fields: []schema.Field{
		{Name: "leaveRequestId", Type: schema.TypeString, Required: true},
	},
}

var leaveOutput = &schema.Object{
	Name: "leave_plan_output",
	Fields: []schema.Field{
		{Name: "plan", Type: schema.TypeArray, Required: true, Items: &schema.Field{
			Type: schema.TypeObject,
			Properties: &schema.Object{
				Fields: []schema.Field{
					{Name: "eventId", Type: schema.TypeString, Required: true},
					{Name: "engagementId", Type: schema.TypeString},
					{Name: "replacementId", Type: schema.TypeString},
					{Name: "reasoning", Type: schema.TypeString, Required: true},
				},
			},
		}},
		{Name: "summary", Type: schema.TypeString, Required: true},
	},
}

// LeaveFlow plans coverage for an approved leave request and creates a
// coverage todo for every replacement the plan names.
type LeaveFlow struct {
	deps Deps
}

func NewLeaveFlow(deps Deps) *LeaveFlow {
	return &LeaveFlow{deps: deps}
}

func (f *LeaveFlow) Run(ctx context.Context, input map[string]any) (out map[string]any, err error) {
	start := time.Now()
	defer func() { observe(FlowLeaveRequest, start, err) }()

	var in struct {
		LeaveRequestID string `json:"leaveRequestId"`
	}
	if err = decodeInput(leaveInput, input, &in); err != nil {
		return nil, err
	}

	lr, err := f.deps.Leaves.FindByID(ctx, in.LeaveRequestID)
	if err != nil {
		return nil, missing(err, "leave request "+in.LeaveRequestID)
	}
	emp, err := f.deps.Employees.FindByID(ctx, lr.EmployeeID)
	if err != nil {
		return nil, missing(err, "employee "+lr.EmployeeID)
	}

	out, err = f.deps.Provider.Infer(ctx, llm.Request{
		Instructions: leaveInstructions,
		Input: map[string]any{
			"employeeId":   emp.ID,
			"employeeName": emp.Name,
			"startDate":    lr.StartDate.UTC().Format("2006-01-02"),
			"endDate":      lr.EndDate.UTC().Format("2006-01-02"),
		},
		Tools:  f.deps.Tools.Subset(tools.ToolConflictingEvents, tools.ToolReplacementColleagues, tools.ToolLeaveRequestLookup),
		Output: leaveOutput,
	})
	if err != nil {
		return nil, err
	}

	// One coverage todo per plan entry that names both an engagement and a
	// replacement. Entries without either are informational only.
	var specs []TodoSpec
	for _, raw := range out["plan"].([]any) {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		engagementID, _ := entry["engagementId"].(string)
		replacementID, _ := entry["replacementId"].(string)
		reasoning, _ := entry["reasoning"].(string)
		if engagementID == "" || replacementID == "" {
			continue
		}
		specs = append(specs, TodoSpec{
			Type: model.TodoLeaveCoverage,
			Text: fmt.Sprintf("Cover for %s (%s to %s): %s",
				emp.Name,
				lr.StartDate.UTC().Format("2006-01-02"),
				lr.EndDate.UTC().Format("2006-01-02"),
				reasoning),
			AssignedTo:  []string{replacementID},
			RelatedType: model.RelatedEngagement,
			RelatedID:   engagementID,
		})
	}
	if _, err = f.deps.Applier.CreateTodos(ctx, FlowLeaveRequest, lr.ID, FlowLeaveRequest, specs); err != nil {
		return nil, err
	}
	f.deps.Logger.Info("leave coverage planned",
		zap.String("leaveRequestId", lr.ID),
		zap.String("employeeId", emp.ID),
		zap.Int("coverageTodos", len(specs)))
	return out, nil
}
