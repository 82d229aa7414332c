// Package flow holds the top-level orchestrators, one per AI-assisted
// business operation. Every flow follows the same sequence: validate caller
// input, gather baseline records, run one inference call, validate the
// returned plan, then apply deterministic side effects. Any failure before
// Apply aborts the invocation with no partial writes.
package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"firmflow/internal/llm"
	"firmflow/internal/repository"
	"firmflow/internal/schema"
	"firmflow/internal/store"
	"firmflow/internal/tools"
	"firmflow/pkg/metrics"
)

// ErrMissingReference: a record the flow depends on does not exist. Raised
// during Gather, before any inference or side effect.
var ErrMissingReference = errors.New("required record missing")

// Flow names, used for metrics and deterministic todo ids.
const (
	FlowInboundEmail      = "process_inbound_email"
	FlowBulkSchedule      = "bulk_schedule_engagements"
	FlowTemplatedEmail    = "generate_templated_email"
	FlowGenerateInvoice   = "generate_invoice"
	FlowLeaveRequest      = "handle_leave_request"
	FlowPerformanceReview = "review_performance"
	FlowReallocate        = "reallocate_workload"
)

// Config carries deployment-specific identifiers injected into flows rather
// than hard-coded.
type Config struct {
	// FallbackAdminID is who classification results are visible to when an
	// inbound email matches no client.
	FallbackAdminID string
	// FallbackPartnerID receives performance-review todos for employees
	// without a manager.
	FallbackPartnerID string
}

// Deps wires one set of collaborators into every flow constructor.
type Deps struct {
	Provider    llm.Provider
	Tools       *tools.Registry
	Clients     *repository.ClientRepository
	Employees   *repository.EmployeeRepository
	Engagements *repository.EngagementRepository
	Firms       *repository.FirmRepository
	Timesheets  *repository.TimesheetRepository
	Leaves      *repository.LeaveRequestRepository
	Applier     *Applier
	Config      Config
	Logger      *zap.Logger

	// Now is injectable for reproducible windows and invoice numbers.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// decodeInput validates the caller payload against the flow's input schema
// and decodes it into the typed form. Validation runs before any store
// access.
func decodeInput[T any](s *schema.Object, input map[string]any, v *T) error {
	if err := s.Validate(input); err != nil {
		return err
	}
	body, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// observe wraps a flow run with duration metrics.
func observe(flowName string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordFlowDuration(flowName, status, time.Since(start))
}

// missing converts a store not-found into the flow-level missing-reference
// error; other errors pass through.
func missing(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrMissingReference, what)
	}
	return err
}
