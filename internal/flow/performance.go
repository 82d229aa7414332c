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

const performanceInstructions = `You draft monthly performance review notes for an employee at a
Chartered Accountancy firm. Compare the hours logged on each engagement
with its budget, name the engagements that ran over budget, and note any
weeks with unusually low logged hours. Be factual and even-handed: this is
input for the employee's manager, not a verdict. deficitHours is total
budgeted hours across the listed engagements minus total logged hours,
never below zero.`

var performanceInput = &schema.Object{
	Name: "performance_review_input",
	Fields: []schema.Field{
		{Name: "employeeId", Type: schema.TypeString, Required: true},
		{Name: "period", Type: schema.TypeString, Required: true, Description: "calendar month, yyyy-MM"},
	},
}

var performanceOutput = &schema.Object{
	Name: "performance_review_output",
	Fields: []schema.Field{
		{Name: "summary", Type: schema.TypeString, Required: true},
		{Name: "deficitHours", Type: schema.TypeNumber, Required: true},
		{Name: "findings", Type: schema.TypeArray, Required: true, Items: &schema.Field{Type: schema.TypeString}},
	},
}

// PerformanceReviewFlow summarizes one employee's month and files a review
// todo with their manager.
type PerformanceReviewFlow struct {
	deps Deps
}

func NewPerformanceReviewFlow(deps Deps) *PerformanceReviewFlow {
	return &PerformanceReviewFlow{deps: deps}
}

func (f *PerformanceReviewFlow) Run(ctx context.Context, input map[string]any) (out map[string]any, err error) {
	start := time.Now()
	defer func() { observe(FlowPerformanceReview, start, err) }()

	var in struct {
		EmployeeID string `json:"employeeId"`
		Period     string `json:"period"`
	}
	if err = decodeInput(performanceInput, input, &in); err != nil {
		return nil, err
	}
	from, to, err := tools.MonthBounds(in.Period)
	if err != nil {
		return nil, err
	}

	emp, err := f.deps.Employees.FindByID(ctx, in.EmployeeID)
	if err != nil {
		return nil, missing(err, "employee "+in.EmployeeID)
	}

	sheets, err := f.deps.Timesheets.FindByEmployeeWeekRange(ctx, emp.ID, from, to)
	if err != nil {
		return nil, err
	}
	engs, err := f.deps.Engagements.FindByAssigneeDueBetween(ctx, emp.ID, from, to)
	if err != nil {
		return nil, err
	}

	logged := make(map[string]float64)
	var totalLogged float64
	weeks := make([]map[string]any, 0, len(sheets))
	for _, ts := range sheets {
		weekTotal := ts.TotalHours()
		totalLogged += weekTotal
		for _, entry := range ts.Entries {
			logged[entry.EngagementID] += entry.Hours
		}
		weeks = append(weeks, map[string]any{
			"weekStart": ts.WeekStart.UTC().Format("2006-01-02"),
			"hours":     weekTotal,
		})
	}

	engDocs := make([]map[string]any, 0, len(engs))
	for _, e := range engs {
		doc := map[string]any{
			"id":          e.ID,
			"clientId":    e.ClientID,
			"status":      e.Status,
			"dueDate":     e.DueDate.UTC().Format("2006-01-02"),
			"loggedHours": logged[e.ID],
		}
		if e.BudgetedHours != nil {
			doc["budgetedHours"] = *e.BudgetedHours
		}
		engDocs = append(engDocs, doc)
	}

	out, err = f.deps.Provider.Infer(ctx, llm.Request{
		Instructions: performanceInstructions,
		Tools:        f.deps.Tools.Subset(tools.ToolMonthlyTimesheets),
		Input: map[string]any{
			"employeeName": emp.Name,
			"department":   emp.Department(),
			"period":       in.Period,
			"weeks":        weeks,
			"totalLogged":  totalLogged,
			"engagements":  engDocs,
		},
		Output: performanceOutput,
	})
	if err != nil {
		return nil, err
	}

	// The review lands with the manager; employees without one fall back to
	// the configured partner.
	reviewer := emp.ManagerID
	if reviewer == "" {
		reviewer = f.deps.Config.FallbackPartnerID
		f.deps.Logger.Info("employee has no manager, routing review to fallback partner",
			zap.String("employeeId", emp.ID))
	}
	summary, _ := out["summary"].(string)
	specs := []TodoSpec{{
		Type:        model.TodoPerformanceReview,
		Text:        fmt.Sprintf("Review %s's performance for %s: %s", emp.Name, in.Period, summary),
		AssignedTo:  []string{reviewer},
		RelatedType: model.RelatedEmployee,
		RelatedID:   emp.ID,
	}}
	if _, err = f.deps.Applier.CreateTodos(ctx, FlowPerformanceReview, emp.ID+"|"+in.Period, FlowPerformanceReview, specs); err != nil {
		return nil, err
	}
	return out, nil
}
