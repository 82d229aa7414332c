package tools

import (
	"context"
	"encoding/json"
	"errors"

	"firmflow/internal/schema"
	"firmflow/internal/store"
)

// toDoc converts an entity struct to its plain-map JSON form for schema
// validation and transport to the model.
func toDoc(v any) map[string]any {
	body, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func newInvoiceData(d Deps) *Tool {
	return &Tool{
		Name: ToolInvoiceData,
		Description: "Aggregate everything needed to draft an invoice: the engagement, its client, and the client's " +
			"issuing firm. Returns found=false when any link in the chain is missing.",
		Input: &schema.Object{
			Name: "invoice_data_input",
			Fields: []schema.Field{
				{Name: "engagementId", Type: schema.TypeString, Required: true},
			},
		},
		Output: &schema.Object{
			Name: "invoice_data_output",
			Fields: []schema.Field{
				{Name: "found", Type: schema.TypeBoolean, Required: true},
				{Name: "engagement", Type: schema.TypeObject},
				{Name: "client", Type: schema.TypeObject},
				{Name: "firm", Type: schema.TypeObject},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			notFound := map[string]any{"found": false}

			eng, err := d.Engagements.FindByID(ctx, str(args, "engagementId"))
			if errors.Is(err, store.ErrNotFound) {
				return notFound, nil
			}
			if err != nil {
				return nil, err
			}

			client, err := d.Clients.FindByID(ctx, eng.ClientID)
			if errors.Is(err, store.ErrNotFound) {
				return notFound, nil
			}
			if err != nil {
				return nil, err
			}

			if client.FirmID == "" {
				return notFound, nil
			}
			firm, err := d.Firms.FindByID(ctx, client.FirmID)
			if errors.Is(err, store.ErrNotFound) {
				return notFound, nil
			}
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"found":      true,
				"engagement": toDoc(eng),
				"client":     toDoc(client),
				"firm":       toDoc(firm),
			}, nil
		},
	}
}

func newLeaveRequestLookup(d Deps) *Tool {
	return &Tool{
		Name:        ToolLeaveRequestLookup,
		Description: "Fetch a leave request by id. Returns found=false when it does not exist.",
		Input: &schema.Object{
			Name: "leave_request_lookup_input",
			Fields: []schema.Field{
				{Name: "leaveRequestId", Type: schema.TypeString, Required: true},
			},
		},
		Output: &schema.Object{
			Name: "leave_request_lookup_output",
			Fields: []schema.Field{
				{Name: "found", Type: schema.TypeBoolean, Required: true},
				{Name: "leaveRequest", Type: schema.TypeObject},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			lr, err := d.Leaves.FindByID(ctx, str(args, "leaveRequestId"))
			if errors.Is(err, store.ErrNotFound) {
				return map[string]any{"found": false}, nil
			}
			if err != nil {
				return nil, err
			}

			return map[string]any{"found": true, "leaveRequest": toDoc(lr)}, nil
		},
	}
}
