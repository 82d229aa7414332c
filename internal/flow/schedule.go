package flow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"firmflow/internal/llm"
	"firmflow/internal/model"
	"firmflow/internal/schema"
	"firmflow/internal/store"
	"firmflow/internal/tools"
)

const bulkScheduleInstructions = `You plan staff assignments for a batch of newly scheduled engagements
at a Chartered Accountancy firm. For each client, pick the team best placed
to deliver the engagement by its due date: use employees_by_department to
list candidates and client_partner_lookup to find the responsible partner,
who should supervise. Every client in the input must receive exactly one
assignment entry. Explain each choice briefly.`

var bulkScheduleInput = &schema.Object{
	Name: "bulk_schedule_input",
	Fields: []schema.Field{
		{Name: "clientIds", Type: schema.TypeArray, Required: true, Items: &schema.Field{Type: schema.TypeString}},
		{Name: "typeId", Type: schema.TypeString, Required: true, Description: "engagement type to schedule"},
		{Name: "dueDate", Type: schema.TypeString, Required: true, Description: "yyyy-MM-dd"},
		{Name: "notes", Type: schema.TypeString},
	},
}

var bulkScheduleOutput = &schema.Object{
	Name: "bulk_schedule_output",
	Fields: []schema.Field{
		{Name: "assignments", Type: schema.TypeArray, Required: true, Items: &schema.Field{
			Type: schema.TypeObject,
			Properties: &schema.Object{
				Fields: []schema.Field{
					{Name: "clientId", Type: schema.TypeString, Required: true},
					{Name: "assigneeIds", Type: schema.TypeArray, Required: true, Items: &schema.Field{Type: schema.TypeString}},
					{Name: "supervisorId", Type: schema.TypeString, Required: true},
					{Name: "reasoning", Type: schema.TypeString, Required: true},
				},
			},
		}},
	},
}

// BulkScheduleFlow proposes staffing for a batch of engagements across
// several clients at once.
type BulkScheduleFlow struct {
	deps Deps
}

func NewBulkScheduleFlow(deps Deps) *BulkScheduleFlow {
	return &BulkScheduleFlow{deps: deps}
}

func (f *BulkScheduleFlow) Run(ctx context.Context, input map[string]any) (out map[string]any, err error) {
	start := time.Now()
	defer func() { observe(FlowBulkSchedule, start, err) }()

	var in struct {
		ClientIDs []string `json:"clientIds"`
		TypeID    string   `json:"typeId"`
		DueDate   string   `json:"dueDate"`
		Notes     string   `json:"notes"`
	}
	if err = decodeInput(bulkScheduleInput, input, &in); err != nil {
		return nil, err
	}

	// Fetch every named client concurrently; unknown ids are skipped rather
	// than failing the whole batch.
	var mu sync.Mutex
	clients := make([]*model.Client, 0, len(in.ClientIDs))
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range in.ClientIDs {
		id := id
		g.Go(func() error {
			c, cerr := f.deps.Clients.FindByID(gctx, id)
			if cerr != nil {
				if store.IsNotFound(cerr) {
					f.deps.Logger.Warn("schedule batch: unknown client skipped", zap.String("clientId", id))
					return nil
				}
				return cerr
			}
			mu.Lock()
			clients = append(clients, c)
			mu.Unlock()
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	if len(clients) == 0 {
		return nil, missing(store.ErrNotFound, "none of the requested clients exist")
	}

	clientDocs := make([]map[string]any, 0, len(clients))
	for _, c := range clients {
		clientDocs = append(clientDocs, map[string]any{
			"id":        c.ID,
			"name":      c.Name,
			"category":  c.Category,
			"partnerId": c.PartnerID,
		})
	}

	out, err = f.deps.Provider.Infer(ctx, llm.Request{
		Instructions: bulkScheduleInstructions,
		Input: map[string]any{
			"clients": clientDocs,
			"typeId":  in.TypeID,
			"dueDate": in.DueDate,
			"notes":   in.Notes,
		},
		Tools:  f.deps.Tools.Subset(tools.ToolEmployeesByDepartment, tools.ToolClientPartnerLookup),
		Output: bulkScheduleOutput,
	})
	return out, err
}
