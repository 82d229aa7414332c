package flow

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"firmflow/internal/llm"
	"firmflow/internal/model"
	"firmflow/internal/schema"
)

const templatedEmailInstructions = `You draft professional client correspondence for a Chartered
Accountancy firm. Write the email described by the named template,
personalised with the client, firm and sender details provided. Keep the
tone formal and concise, sign off with the sender's name and the firm name,
and do not invent figures, dates or commitments that are not in the input.`

var templatedEmailInput = &schema.Object{
	Name: "templated_email_input",
	Fields: []schema.Field{
		{Name: "clientId", Type: schema.TypeString, Required: true},
		{Name: "template", Type: schema.TypeString, Required: true, Enum: model.EmailTemplates},
		{Name: "senderId", Type: schema.TypeString, Required: true, Description: "employee sending the email"},
	},
}

var templatedEmailOutput = &schema.Object{
	Name: "templated_email_output",
	Fields: []schema.Field{
		{Name: "subject", Type: schema.TypeString, Required: true},
		{Name: "body", Type: schema.TypeString, Required: true},
	},
}

// TemplatedEmailFlow drafts one of the fixed correspondence templates for a
// client. It needs no tools: the baseline records are fetched up front.
type TemplatedEmailFlow struct {
	deps Deps
}

func NewTemplatedEmailFlow(deps Deps) *TemplatedEmailFlow {
	return &TemplatedEmailFlow{deps: deps}
}

func (f *TemplatedEmailFlow) Run(ctx context.Context, input map[string]any) (out map[string]any, err error) {
	start := time.Now()
	defer func() { observe(FlowTemplatedEmail, start, err) }()

	var in struct {
		ClientID string `json:"clientId"`
		Template string `json:"template"`
		SenderID string `json:"senderId"`
	}
	if err = decodeInput(templatedEmailInput, input, &in); err != nil {
		return nil, err
	}

	var (
		client *model.Client
		sender *model.Employee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, cerr := f.deps.Clients.FindByID(gctx, in.ClientID)
		if cerr != nil {
			return missing(cerr, "client "+in.ClientID)
		}
		client = c
		return nil
	})
	g.Go(func() error {
		e, eerr := f.deps.Employees.FindByID(gctx, in.SenderID)
		if eerr != nil {
			return missing(eerr, "employee "+in.SenderID)
		}
		sender = e
		return nil
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	if client.FirmID == "" {
		return nil, fmt.Errorf("%w: client %s has no issuing firm", ErrMissingReference, client.ID)
	}
	firm, err := f.deps.Firms.FindByID(ctx, client.FirmID)
	if err != nil {
		return nil, missing(err, "firm "+client.FirmID)
	}

	out, err = f.deps.Provider.Infer(ctx, llm.Request{
		Instructions: templatedEmailInstructions,
		Input: map[string]any{
			"template":    in.Template,
			"clientName":  client.Name,
			"clientEmail": client.Email,
			"firmName":    firm.Name,
			"firmAddress": firm.Address,
			"senderName":  sender.Name,
			"senderEmail": sender.Email,
		},
		Output: templatedEmailOutput,
	})
	return out, err
}
