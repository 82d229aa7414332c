package flow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"firmflow/internal/llm"
	"firmflow/internal/schema"
	"firmflow/internal/tools"
)

const reallocateInstructions = `You redistribute work when an employee leaves a Chartered Accountancy
firm. Every one of the departing employee's active engagements must be
reassigned to exactly one colleague. Balance the load: use
workload_calculator to see current hours per colleague and prefer the
least loaded people who plausibly fit the work, using
employees_by_department to check departments when unsure. Produce one plan
entry per engagement with a short reasoning each.`

var reallocateInput = &schema.Object{
	Name: "reallocate_input",
	Fields: []schema.Field{
		{Name: "employeeId", Type: schema.TypeString, Required: true, Description: "the departing employee"},
	},
}

var reallocateOutput = &schema.Object{
	Name: "reallocate_output",
	Fields: []schema.Field{
		{Name: "plan", Type: schema.TypeArray, Required: true, Items: &schema.Field{
			Type: schema.TypeObject,
			Properties: &schema.Object{
				Fields: []schema.Field{
					{Name: "engagementId", Type: schema.TypeString, Required: true},
					{Name: "newAssigneeId", Type: schema.TypeString, Required: true},
					{Name: "reasoning", Type: schema.TypeString, Required: true},
				},
			},
		}},
	},
}

// ReallocateFlow plans the handover of a departing employee's active
// engagements. An employee with no active work yields an empty plan without
// touching the model.
type ReallocateFlow struct {
	deps Deps
}

func NewReallocateFlow(deps Deps) *ReallocateFlow {
	return &ReallocateFlow{deps: deps}
}

func (f *ReallocateFlow) Run(ctx context.Context, input map[string]any) (out map[string]any, err error) {
	start := time.Now()
	defer func() { observe(FlowReallocate, start, err) }()

	var in struct {
		EmployeeID string `json:"employeeId"`
	}
	if err = decodeInput(reallocateInput, input, &in); err != nil {
		return nil, err
	}

	if _, err = f.deps.Employees.FindByID(ctx, in.EmployeeID); err != nil {
		return nil, missing(err, "employee "+in.EmployeeID)
	}

	active, err := f.deps.Engagements.FindActiveByAssignee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		f.deps.Logger.Info("no active engagements to reallocate", zap.String("employeeId", in.EmployeeID))
		return map[string]any{"plan": []any{}}, nil
	}

	// The planning window runs to the latest due date among the work being
	// handed over.
	windowEnd := active[0].DueDate
	engDocs := make([]map[string]any, 0, len(active))
	for _, e := range active {
		if e.DueDate.After(windowEnd) {
			windowEnd = e.DueDate
		}
		engDocs = append(engDocs, map[string]any{
			"id":         e.ID,
			"clientId":   e.ClientID,
			"typeId":     e.TypeID,
			"status":     e.Status,
			"dueDate":    e.DueDate.UTC().Format("2006-01-02"),
			"assignedTo": e.AssignedTo,
		})
	}

	// Ground the model with the baseline workload picture so the first tool
	// round is never spent rediscovering it.
	workloadTool := f.deps.Tools.Get(tools.ToolWorkloadCalculator)
	if workloadTool == nil {
		return nil, fmt.Errorf("tool %s not registered", tools.ToolWorkloadCalculator)
	}
	workloads, err := workloadTool.Call(ctx, map[string]any{
		"excludeEmployeeId": in.EmployeeID,
		"windowEnd":         windowEnd.UTC().Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	out, err = f.deps.Provider.Infer(ctx, llm.Request{
		Instructions: reallocateInstructions,
		Input: map[string]any{
			"departingEmployeeId": in.EmployeeID,
			"engagements":         engDocs,
			"workloads":           workloads["workloads"],
			"windowEnd":           windowEnd.UTC().Format("2006-01-02"),
		},
		Tools:  f.deps.Tools.Subset(tools.ToolWorkloadCalculator, tools.ToolEmployeesByDepartment),
		Output: reallocateOutput,
	})
	return out, err
}
