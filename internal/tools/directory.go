package tools

import (
	"context"

	"firmflow/internal/model"
	"firmflow/internal/schema"
)

func employeeSummary(e *model.Employee) map[string]any {
	roles := make([]any, len(e.Roles))
	for i, r := range e.Roles {
		roles[i] = r
	}
	return map[string]any{
		"id":    e.ID,
		"name":  e.Name,
		"email": e.Email,
		"roles": roles,
	}
}

func newEmployeesByDepartment(d Deps) *Tool {
	return &Tool{
		Name:        ToolEmployeesByDepartment,
		Description: "List all employees whose role set contains the given department name, or the special roles Partner and Admin.",
		Input: &schema.Object{
			Name: "employees_by_department_input",
			Fields: []schema.Field{
				{Name: "department", Type: schema.TypeString, Required: true,
					Description: "Department or role name, e.g. Audit, GST, Partner."},
			},
		},
		Output: &schema.Object{
			Name: "employees_by_department_output",
			Fields: []schema.Field{
				{Name: "employees", Type: schema.TypeArray, Required: true,
					Items: &schema.Field{Type: schema.TypeObject}},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			emps, err := d.Employees.FindByRole(ctx, str(args, "department"))
			if err != nil {
				return nil, err
			}
			out := make([]any, 0, len(emps))
			for i := range emps {
				out = append(out, employeeSummary(&emps[i]))
			}
			return map[string]any{"employees": out}, nil
		},
	}
}

func newClientByEmail(d Deps) *Tool {
	return &Tool{
		Name:        ToolClientByEmail,
		Description: "Look up the client whose contact email matches the sender address. Returns found=false when no client matches.",
		Input: &schema.Object{
			Name: "client_by_email_input",
			Fields: []schema.Field{
				{Name: "email", Type: schema.TypeString, Required: true,
					Description: "Sender email address to match against client contact emails."},
			},
		},
		Output: &schema.Object{
			Name: "client_by_email_output",
			Fields: []schema.Field{
				{Name: "found", Type: schema.TypeBoolean, Required: true},
				{Name: "clientId", Type: schema.TypeString},
				{Name: "clientName", Type: schema.TypeString},
				{Name: "partnerId", Type: schema.TypeString},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			c, err := d.Clients.FindByEmail(ctx, str(args, "email"))
			if err != nil {
				return nil, err
			}
			if c == nil {
				return map[string]any{"found": false}, nil
			}
			out := map[string]any{
				"found":      true,
				"clientId":   c.ID,
				"clientName": c.Name,
			}
			if c.PartnerID != "" {
				out["partnerId"] = c.PartnerID
			}
			return out, nil
		},
	}
}

// managerForClient resolves the employee responsible for a client. The firm
// has no distinct manager concept yet, so the assigned partner doubles as
// manager. Swap the policy here once managers become their own field.
func managerForClient(ctx context.Context, d Deps, c *model.Client) (*model.Employee, error) {
	if c.PartnerID == "" {
		return nil, nil
	}
	return d.Employees.FindByID(ctx, c.PartnerID)
}

func newClientPartnerLookup(d Deps) *Tool {
	return &Tool{
		Name:        ToolClientPartnerLookup,
		Description: "Resolve the partner (acting manager) responsible for a client. Returns found=false when the client has no partner assigned.",
		Input: &schema.Object{
			Name: "client_partner_lookup_input",
			Fields: []schema.Field{
				{Name: "clientId", Type: schema.TypeString, Required: true},
			},
		},
		Output: &schema.Object{
			Name: "client_partner_lookup_output",
			Fields: []schema.Field{
				{Name: "found", Type: schema.TypeBoolean, Required: true},
				{Name: "partnerId", Type: schema.TypeString},
				{Name: "partnerName", Type: schema.TypeString},
				{Name: "partnerEmail", Type: schema.TypeString},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			c, err := d.Clients.FindByID(ctx, str(args, "clientId"))
			if err != nil {
				return nil, err
			}
			partner, err := managerForClient(ctx, d, c)
			if err != nil {
				return nil, err
			}
			if partner == nil {
				return map[string]any{"found": false}, nil
			}
			return map[string]any{
				"found":        true,
				"partnerId":    partner.ID,
				"partnerName":  partner.Name,
				"partnerEmail": partner.Email,
			}, nil
		},
	}
}
