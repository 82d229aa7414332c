package flow

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"firmflow/internal/llm"
	"firmflow/internal/model"
	"firmflow/internal/repository"
	"firmflow/internal/store"
	"firmflow/internal/tools"
)

// fakeProvider returns a canned answer and records how it was invoked.
type fakeProvider struct {
	out   map[string]any
	err   error
	calls int
	last  llm.Request
}

func (p *fakeProvider) Infer(_ context.Context, req llm.Request) (map[string]any, error) {
	p.calls++
	p.last = req
	if p.err != nil {
		return nil, p.err
	}
	return p.out, nil
}

type fixture struct {
	deps     Deps
	provider *fakeProvider
	store    *store.Memory
	todos    *repository.TodoRepository
}

func newFixture(t *testing.T, provider *fakeProvider, now time.Time) *fixture {
	t.Helper()
	mem := store.NewMemory()
	clients := repository.NewClientRepository(mem)
	employees := repository.NewEmployeeRepository(mem)
	engagements := repository.NewEngagementRepository(mem)
	todos := repository.NewTodoRepository(mem)
	nowFn := func() time.Time { return now }
	registry := tools.NewRegistry(tools.Deps{
		Clients:         clients,
		Employees:       employees,
		Engagements:     engagements,
		EngagementTypes: repository.NewEngagementTypeRepository(mem),
		Timesheets:      repository.NewTimesheetRepository(mem),
		Calendar:        repository.NewCalendarEventRepository(mem),
		Firms:           repository.NewFirmRepository(mem),
		Leaves:          repository.NewLeaveRequestRepository(mem),
		Now:             nowFn,
	})
	logger := zap.NewNop()
	return &fixture{
		provider: provider,
		store:    mem,
		todos:    todos,
		deps: Deps{
			Provider:    provider,
			Tools:       registry,
			Clients:     clients,
			Employees:   employees,
			Engagements: engagements,
			Firms:       repository.NewFirmRepository(mem),
			Timesheets:  repository.NewTimesheetRepository(mem),
			Leaves:      repository.NewLeaveRequestRepository(mem),
			Applier:     NewApplier(todos, logger, nowFn),
			Config:      Config{FallbackAdminID: "admin-1", FallbackPartnerID: "partner-9"},
			Logger:      logger,
			Now:         nowFn,
		},
	}
}

func mustCreate(t *testing.T, err error) {
	t.Helper()
	require.NoError(t, err)
}

func TestInvoiceNumber(t *testing.T) {
	require.Equal(t, "INV-2025-ABCDE", InvoiceNumber(2025, "abcdeXYZ123"))
	require.Equal(t, "INV-2024-E7", InvoiceNumber(2024, "e7"))
}

func TestTodoIDDeterministic(t *testing.T) {
	a := TodoID(FlowLeaveRequest, "leave-1", "eng-1", "emp-2")
	b := TodoID(FlowLeaveRequest, "leave-1", "eng-1", "emp-2")
	require.Equal(t, a, b)
	require.NotEqual(t, a, TodoID(FlowLeaveRequest, "leave-1", "eng-2", "emp-2"))
}

func TestInboundEmailUnknownSenderOmitsClient(t *testing.T) {
	provider := &fakeProvider{out: map[string]any{
		"category":  model.EmailGeneral,
		"summary":   "General enquiry about GST registration.",
		"clientId":  "",
		"visibleTo": []any{"partner-2"},
	}}
	fx := newFixture(t, provider, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	out, err := NewInboundEmailFlow(fx.deps).Run(context.Background(), map[string]any{
		"from":    "stranger@example.com",
		"subject": "GST question",
		"body":    "How do I register?",
	})
	require.NoError(t, err)
	require.NotContains(t, out, "clientId")
	require.NotContains(t, out, "clientName")
	require.Equal(t, []any{"admin-1"}, out["visibleTo"])
}

func TestInboundEmailKnownClientKeepsRouting(t *testing.T) {
	provider := &fakeProvider{out: map[string]any{
		"category":   model.EmailDocumentSubmission,
		"summary":    "Bank statements attached for FY24 audit.",
		"clientId":   "client-1",
		"clientName": "Acme Traders",
		"visibleTo":  []any{"partner-2"},
	}}
	fx := newFixture(t, provider, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	out, err := NewInboundEmailFlow(fx.deps).Run(context.Background(), map[string]any{
		"from":    "accounts@acme.example",
		"subject": "FY24 statements",
		"body":    "Please find attached.",
	})
	require.NoError(t, err)
	require.Equal(t, "client-1", out["clientId"])
	require.Equal(t, []any{"partner-2"}, out["visibleTo"])
}

func TestInboundEmailRejectsUnknownField(t *testing.T) {
	fx := newFixture(t, &fakeProvider{}, time.Now())
	_, err := NewInboundEmailFlow(fx.deps).Run(context.Background(), map[string]any{
		"from": "a@b.c", "subject": "s", "body": "b", "priority": "high",
	})
	require.Error(t, err)
	require.Zero(t, fx.provider.calls)
}

// countingStore tallies reads so tests can prove invalid input never reaches
// storage.
type countingStore struct {
	store.Store
	reads int
}

func (c *countingStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	c.reads++
	return c.Store.Get(ctx, collection, id)
}

func (c *countingStore) Query(ctx context.Context, collection string, filters ...store.Filter) ([]json.RawMessage, error) {
	c.reads++
	return c.Store.Query(ctx, collection, filters...)
}

func TestInvalidInputTouchesNoStorage(t *testing.T) {
	cs := &countingStore{Store: store.NewMemory()}
	provider := &fakeProvider{}
	todos := repository.NewTodoRepository(cs)
	deps := Deps{
		Provider:    provider,
		Tools:       tools.NewRegistry(tools.Deps{}),
		Clients:     repository.NewClientRepository(cs),
		Employees:   repository.NewEmployeeRepository(cs),
		Engagements: repository.NewEngagementRepository(cs),
		Firms:       repository.NewFirmRepository(cs),
		Timesheets:  repository.NewTimesheetRepository(cs),
		Leaves:      repository.NewLeaveRequestRepository(cs),
		Applier:     NewApplier(todos, zap.NewNop(), nil),
		Logger:      zap.NewNop(),
	}

	cases := map[string]func(context.Context, map[string]any) (map[string]any, error){
		"inbound":    NewInboundEmailFlow(deps).Run,
		"schedule":   NewBulkScheduleFlow(deps).Run,
		"template":   NewTemplatedEmailFlow(deps).Run,
		"invoice":    NewGenerateInvoiceFlow(deps).Run,
		"leave":      NewLeaveFlow(deps).Run,
		"review":     NewPerformanceReviewFlow(deps).Run,
		"reallocate": NewReallocateFlow(deps).Run,
	}
	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := run(context.Background(), map[string]any{"bogus": "field"})
			require.Error(t, err)
			require.Zero(t, cs.reads)
			require.Zero(t, provider.calls)
		})
	}
}

func TestReallocateNoActiveWorkShortCircuits(t *testing.T) {
	fx := newFixture(t, &fakeProvider{}, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	mustCreate(t, fx.deps.Employees.Create(ctx, &model.Employee{ID: "emp-1", Name: "Meera", Roles: []string{"Audit"}}))
	mustCreate(t, fx.deps.Engagements.Create(ctx, &model.Engagement{
		ID: "eng-done", ClientID: "client-1", Status: model.StatusCompleted,
		DueDate: time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), AssignedTo: []string{"emp-1"},
	}))

	out, err := NewReallocateFlow(fx.deps).Run(ctx, map[string]any{"employeeId": "emp-1"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"plan": []any{}}, out)
	require.Zero(t, fx.provider.calls, "no inference call for an empty workload")
}

func TestReallocatePlansActiveEngagements(t *testing.T) {
	provider := &fakeProvider{out: map[string]any{
		"plan": []any{map[string]any{
			"engagementId": "eng-1", "newAssigneeId": "emp-2",
			"reasoning": "Least loaded auditor.",
		}},
	}}
	fx := newFixture(t, provider, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	mustCreate(t, fx.deps.Employees.Create(ctx, &model.Employee{ID: "emp-1", Name: "Meera", Roles: []string{"Audit"}}))
	mustCreate(t, fx.deps.Employees.Create(ctx, &model.Employee{ID: "emp-2", Name: "Ravi", Roles: []string{"Audit"}}))
	mustCreate(t, fx.deps.Engagements.Create(ctx, &model.Engagement{
		ID: "eng-1", ClientID: "client-1", Status: model.StatusInProcess,
		DueDate: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), AssignedTo: []string{"emp-1"},
	}))

	out, err := NewReallocateFlow(fx.deps).Run(ctx, map[string]any{"employeeId": "emp-1"})
	require.NoError(t, err)
	require.Len(t, out["plan"], 1)
	require.Equal(t, 1, fx.provider.calls)
	require.Equal(t, "2025-07-15", fx.provider.last.Input["windowEnd"])
	// Baseline workloads are computed before inference and exclude the
	// departing employee.
	workloads, ok := fx.provider.last.Input["workloads"].([]any)
	require.True(t, ok)
	for _, w := range workloads {
		require.NotEqual(t, "emp-1", w.(map[string]any)["employeeId"])
	}
}

func TestGenerateInvoiceOverridesNumberAndRecipient(t *testing.T) {
	provider := &fakeProvider{out: map[string]any{
		"invoiceNumber": "INV-9999-WRONG",
		"recipient":     "wrong@example.com",
		"subject":       "Invoice for statutory audit",
		"body":          "Please find your invoice below.",
		"total":         45000.0,
	}}
	fx := newFixture(t, provider, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	mustCreate(t, fx.deps.Firms.Create(ctx, &model.Firm{ID: "firm-1", Name: "S&C Associates", Address: "Mumbai"}))
	mustCreate(t, fx.deps.Clients.Create(ctx, &model.Client{
		ID: "client-1", Name: "Acme Traders", Email: "accounts@acme.example", FirmID: "firm-1",
	}))
	mustCreate(t, fx.deps.Engagements.Create(ctx, &model.Engagement{
		ID: "abcdeXYZ123", ClientID: "client-1", Status: model.StatusCompleted,
		Fee: 45000, DueDate: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
	}))

	out, err := NewGenerateInvoiceFlow(fx.deps).Run(ctx, map[string]any{"engagementId": "abcdeXYZ123"})
	require.NoError(t, err)
	require.Equal(t, "INV-2025-ABCDE", out["invoiceNumber"])
	require.Equal(t, "accounts@acme.example", out["recipient"])

	// The gather went through the aggregator, so the prompt carries the
	// whole chain.
	clientDoc, ok := fx.provider.last.Input["client"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "accounts@acme.example", clientDoc["email"])
	firmDoc, ok := fx.provider.last.Input["firm"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "S&C Associates", firmDoc["name"])
}

func TestGenerateInvoiceMissingEngagement(t *testing.T) {
	fx := newFixture(t, &fakeProvider{}, time.Now())
	_, err := NewGenerateInvoiceFlow(fx.deps).Run(context.Background(), map[string]any{"engagementId": "nope"})
	require.ErrorIs(t, err, ErrMissingReference)
	require.Zero(t, fx.provider.calls)
}

func TestGenerateInvoiceClientWithoutEmail(t *testing.T) {
	fx := newFixture(t, &fakeProvider{}, time.Now())
	ctx := context.Background()
	mustCreate(t, fx.deps.Firms.Create(ctx, &model.Firm{ID: "firm-1", Name: "S&C Associates"}))
	mustCreate(t, fx.deps.Clients.Create(ctx, &model.Client{ID: "client-1", Name: "Acme", FirmID: "firm-1"}))
	mustCreate(t, fx.deps.Engagements.Create(ctx, &model.Engagement{
		ID: "eng-1", ClientID: "client-1", Status: model.StatusCompleted, DueDate: time.Now(),
	}))
	_, err := NewGenerateInvoiceFlow(fx.deps).Run(ctx, map[string]any{"engagementId": "eng-1"})
	require.ErrorIs(t, err, ErrMissingReference)
}

func TestLeaveFlowCreatesCoverageTodos(t *testing.T) {
	provider := &fakeProvider{out: map[string]any{
		"plan": []any{
			map[string]any{
				"eventId": "evt-1", "engagementId": "eng-x", "replacementId": "emp-f",
				"reasoning": "F is the other assignee on the engagement.",
			},
			map[string]any{
				"eventId":   "evt-2",
				"reasoning": "Internal meeting, no engagement linked.",
			},
		},
		"summary": "One meeting covered, one flagged.",
	}}
	fx := newFixture(t, provider, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	mustCreate(t, fx.deps.Employees.Create(ctx, &model.Employee{ID: "emp-e", Name: "Esha", Roles: []string{"Tax"}}))
	mustCreate(t, fx.deps.Leaves.Create(ctx, &model.LeaveRequest{
		ID: "leave-1", EmployeeID: "emp-e", Status: model.LeaveApproved,
		StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC),
	}))

	out, err := NewLeaveFlow(fx.deps).Run(ctx, map[string]any{"leaveRequestId": "leave-1"})
	require.NoError(t, err)
	require.Equal(t, "One meeting covered, one flagged.", out["summary"])

	created, err := fx.todos.FindByAssignee(ctx, "emp-f")
	require.NoError(t, err)
	require.Len(t, created, 1)
	todo := created[0]
	require.Equal(t, model.TodoLeaveCoverage, todo.Type)
	require.Equal(t, model.RelatedEngagement, todo.RelatedType)
	require.Equal(t, "eng-x", todo.RelatedID)
	require.Equal(t, TodoID(FlowLeaveRequest, "leave-1", "eng-x", "emp-f"), todo.ID)
	require.Contains(t, todo.Text, "2024-05-01")
	require.Contains(t, todo.Text, "Esha")
}

func TestLeaveFlowMissingRequest(t *testing.T) {
	fx := newFixture(t, &fakeProvider{}, time.Now())
	_, err := NewLeaveFlow(fx.deps).Run(context.Background(), map[string]any{"leaveRequestId": "leave-404"})
	require.ErrorIs(t, err, ErrMissingReference)
}

func TestPerformanceReviewRoutesToManager(t *testing.T) {
	provider := &fakeProvider{out: map[string]any{
		"summary":      "Solid month, one engagement over budget.",
		"deficitHours": 4.0,
		"findings":     []any{"eng-1 ran 4 hours over budget"},
	}}
	fx := newFixture(t, provider, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	mustCreate(t, fx.deps.Employees.Create(ctx, &model.Employee{
		ID: "emp-1", Name: "Meera", Roles: []string{"Audit"}, ManagerID: "mgr-1",
	}))

	_, err := NewPerformanceReviewFlow(fx.deps).Run(ctx, map[string]any{
		"employeeId": "emp-1", "period": "2025-06",
	})
	require.NoError(t, err)

	created, err := fx.todos.FindByAssignee(ctx, "mgr-1")
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, model.TodoPerformanceReview, created[0].Type)
	require.Equal(t, model.RelatedEmployee, created[0].RelatedType)
	require.Equal(t, "emp-1", created[0].RelatedID)
}

func TestPerformanceReviewFallsBackToPartner(t *testing.T) {
	provider := &fakeProvider{out: map[string]any{
		"summary":      "Quiet month.",
		"deficitHours": 0.0,
		"findings":     []any{},
	}}
	fx := newFixture(t, provider, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	mustCreate(t, fx.deps.Employees.Create(ctx, &model.Employee{ID: "emp-solo", Name: "Dev", Roles: []string{"GST"}}))

	_, err := NewPerformanceReviewFlow(fx.deps).Run(ctx, map[string]any{
		"employeeId": "emp-solo", "period": "2025-06",
	})
	require.NoError(t, err)

	created, err := fx.todos.FindByAssignee(ctx, "partner-9")
	require.NoError(t, err)
	require.Len(t, created, 1)
}

func TestPerformanceReviewBadPeriod(t *testing.T) {
	fx := newFixture(t, &fakeProvider{}, time.Now())
	_, err := NewPerformanceReviewFlow(fx.deps).Run(context.Background(), map[string]any{
		"employeeId": "emp-1", "period": "June 2025",
	})
	require.Error(t, err)
	require.Zero(t, fx.provider.calls)
}

func TestBulkScheduleSkipsUnknownClients(t *testing.T) {
	provider := &fakeProvider{out: map[string]any{
		"assignments": []any{map[string]any{
			"clientId": "client-1", "assigneeIds": []any{"emp-1"},
			"supervisorId": "partner-1", "reasoning": "Only audit team member free.",
		}},
	}}
	fx := newFixture(t, provider, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	mustCreate(t, fx.deps.Clients.Create(ctx, &model.Client{ID: "client-1", Name: "Acme", PartnerID: "partner-1"}))

	out, err := NewBulkScheduleFlow(fx.deps).Run(ctx, map[string]any{
		"clientIds": []any{"client-1", "client-404"},
		"typeId":    "type-audit",
		"dueDate":   "2025-09-30",
	})
	require.NoError(t, err)
	require.Len(t, out["assignments"], 1)

	clients, ok := fx.provider.last.Input["clients"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, clients, 1)
	require.Equal(t, "client-1", clients[0]["id"])
}

func TestBulkScheduleAllUnknown(t *testing.T) {
	fx := newFixture(t, &fakeProvider{}, time.Now())
	_, err := NewBulkScheduleFlow(fx.deps).Run(context.Background(), map[string]any{
		"clientIds": []any{"nope-1", "nope-2"},
		"typeId":    "type-audit",
		"dueDate":   "2025-09-30",
	})
	require.ErrorIs(t, err, ErrMissingReference)
	require.Zero(t, fx.provider.calls)
}

func TestTemplatedEmailGathersBaseline(t *testing.T) {
	provider := &fakeProvider{out: map[string]any{
		"subject": "Welcome to S&C Associates",
		"body":    "Dear Acme Traders, ...",
	}}
	fx := newFixture(t, provider, time.Now())
	ctx := context.Background()
	mustCreate(t, fx.deps.Firms.Create(ctx, &model.Firm{ID: "firm-1", Name: "S&C Associates", Address: "Mumbai"}))
	mustCreate(t, fx.deps.Clients.Create(ctx, &model.Client{
		ID: "client-1", Name: "Acme Traders", Email: "accounts@acme.example", FirmID: "firm-1",
	}))
	mustCreate(t, fx.deps.Employees.Create(ctx, &model.Employee{
		ID: "emp-1", Name: "Meera", Email: "meera@snc.example", Roles: []string{"Audit"},
	}))

	out, err := NewTemplatedEmailFlow(fx.deps).Run(ctx, map[string]any{
		"clientId": "client-1",
		"template": model.TemplateNewClientOnboarding,
		"senderId": "emp-1",
	})
	require.NoError(t, err)
	require.Equal(t, "Welcome to S&C Associates", out["subject"])
	require.Equal(t, "S&C Associates", fx.provider.last.Input["firmName"])
	require.Equal(t, "Meera", fx.provider.last.Input["senderName"])
	require.Nil(t, fx.provider.last.Tools, "drafting uses no tools")
}

func TestTemplatedEmailClientWithoutFirm(t *testing.T) {
	fx := newFixture(t, &fakeProvider{}, time.Now())
	ctx := context.Background()
	mustCreate(t, fx.deps.Clients.Create(ctx, &model.Client{
		ID: "client-1", Name: "Acme Traders", Email: "accounts@acme.example",
	}))
	mustCreate(t, fx.deps.Employees.Create(ctx, &model.Employee{
		ID: "emp-1", Name: "Meera", Email: "meera@snc.example", Roles: []string{"Audit"},
	}))

	_, err := NewTemplatedEmailFlow(fx.deps).Run(ctx, map[string]any{
		"clientId": "client-1",
		"template": model.TemplateNewClientOnboarding,
		"senderId": "emp-1",
	})
	require.ErrorIs(t, err, ErrMissingReference)
	require.Zero(t, fx.provider.calls)
}

func TestTemplatedEmailRejectsUnknownTemplate(t *testing.T) {
	fx := newFixture(t, &fakeProvider{}, time.Now())
	_, err := NewTemplatedEmailFlow(fx.deps).Run(context.Background(), map[string]any{
		"clientId": "client-1", "template": "Birthday Wishes", "senderId": "emp-1",
	})
	require.Error(t, err)
	require.Zero(t, fx.provider.calls)
}
