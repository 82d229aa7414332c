// Package tools holds the named, schema-bound data-access functions exposed
// to the inference step. Every tool is a deterministic function from
// validated input to validated output; the model is one caller, the flow
// orchestrators another. "No match" is an empty collection, not an error.
package tools

import (
	"context"
	"fmt"
	"time"

	"firmflow/internal/repository"
	"firmflow/internal/schema"
	"firmflow/pkg/metrics"
)

// Tool is one callable capability. Call enforces the input schema before Run
// and the output schema after, so neither the model nor an orchestrator can
// pass or receive an out-of-contract payload.
type Tool struct {
	Name        string
	Description string
	Input       *schema.Object
	Output      *schema.Object
	Run         func(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Call validates, runs, and validates again.
func (t *Tool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	if err := t.Input.Validate(args); err != nil {
		metrics.RecordToolCall(t.Name, "invalid_input")
		return nil, fmt.Errorf("tool %s: %w", t.Name, err)
	}

	out, err := t.Run(ctx, args)
	if err != nil {
		metrics.RecordToolCall(t.Name, "error")
		return nil, fmt.Errorf("tool %s: %w", t.Name, err)
	}

	if err := t.Output.Validate(out); err != nil {
		metrics.RecordToolCall(t.Name, "invalid_output")
		return nil, fmt.Errorf("tool %s produced invalid output: %w", t.Name, err)
	}

	metrics.RecordToolCall(t.Name, "success")
	return out, nil
}

// Registry is the closed set of tools available to a flow invocation.
type Registry struct {
	tools map[string]*Tool
	order []string
}

func NewEmptyRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get returns the named tool or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// List returns tools in registration order.
func (r *Registry) List() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Subset returns a registry narrowed to the named tools. Flows use this to
// hand the model only the capabilities the flow actually allows.
func (r *Registry) Subset(names ...string) *Registry {
	sub := NewEmptyRegistry()
	for _, name := range names {
		if t := r.tools[name]; t != nil {
			sub.Register(t)
		}
	}
	return sub
}

// Deps carries everything the built-in tools read from.
type Deps struct {
	Clients         *repository.ClientRepository
	Employees       *repository.EmployeeRepository
	Engagements     *repository.EngagementRepository
	EngagementTypes *repository.EngagementTypeRepository
	Timesheets      *repository.TimesheetRepository
	Calendar        *repository.CalendarEventRepository
	Firms           *repository.FirmRepository
	Leaves          *repository.LeaveRequestRepository

	// Now is injectable so workload windows are reproducible in tests.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// NewRegistry builds the full built-in toolset.
func NewRegistry(d Deps) *Registry {
	r := NewEmptyRegistry()
	r.Register(newEmployeesByDepartment(d))
	r.Register(newClientByEmail(d))
	r.Register(newClientPartnerLookup(d))
	r.Register(newConflictingEvents(d))
	r.Register(newReplacementColleagues(d))
	r.Register(newWorkloadCalculator(d))
	r.Register(newMonthlyTimesheets(d))
	r.Register(newInvoiceData(d))
	r.Register(newLeaveRequestLookup(d))
	return r
}

// Tool names, referenced by flows when narrowing the registry.
const (
	ToolEmployeesByDepartment = "employees_by_department"
	ToolClientByEmail         = "client_by_email"
	ToolClientPartnerLookup   = "client_partner_lookup"
	ToolConflictingEvents     = "conflicting_events"
	ToolReplacementColleagues = "replacement_colleagues"
	ToolWorkloadCalculator    = "workload_calculator"
	ToolMonthlyTimesheets     = "monthly_timesheets"
	ToolInvoiceData           = "invoice_data"
	ToolLeaveRequestLookup    = "leave_request_lookup"
)

const dateLayout = "2006-01-02"

func parseDate(args map[string]any, key string) (time.Time, error) {
	s, _ := args[key].(string)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected yyyy-MM-dd date, got %q", key, s)
	}
	return t, nil
}

func str(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
