package flow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"firmflow/internal/llm"
	"firmflow/internal/model"
	"firmflow/internal/schema"
	"firmflow/internal/tools"
)

const inboundEmailInstructions = `You are the mail triage assistant for a Chartered Accountancy firm.
Classify the inbound email into exactly one category and write a one or two
sentence summary. Use the client_by_email tool to look up the sender; if a
client is found, use client_partner_lookup to find the responsible partner
and set visibleTo to the partner's id. Only include clientId and clientName
when a client was actually found. Never invent client identifiers.`

var inboundEmailInput = &schema.Object{
	Name: "classify_email_input",
	Fields: []schema.Field{
		{Name: "from", Type: schema.TypeString, Required: true, Description: "sender address"},
		{Name: "subject", Type: schema.TypeString, Required: true},
		{Name: "body", Type: schema.TypeString, Required: true},
	},
}

var inboundEmailOutput = &schema.Object{
	Name: "classify_email_output",
	Fields: []schema.Field{
		{Name: "category", Type: schema.TypeString, Required: true, Enum: model.EmailCategories},
		{Name: "summary", Type: schema.TypeString, Required: true},
		{Name: "clientId", Type: schema.TypeString, Description: "only when the sender matched a client"},
		{Name: "clientName", Type: schema.TypeString},
		{Name: "visibleTo", Type: schema.TypeArray, Required: true, Items: &schema.Field{Type: schema.TypeString}},
		{Name: "suggestedAction", Type: schema.TypeString},
	},
}

// InboundEmailFlow classifies an incoming email and routes its visibility.
type InboundEmailFlow struct {
	deps Deps
}

func NewInboundEmailFlow(deps Deps) *InboundEmailFlow {
	return &InboundEmailFlow{deps: deps}
}

func (f *InboundEmailFlow) Run(ctx context.Context, input map[string]any) (out map[string]any, err error) {
	start := time.Now()
	defer func() { observe(FlowInboundEmail, start, err) }()

	var in struct {
		From    string `json:"from"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err = decodeInput(inboundEmailInput, input, &in); err != nil {
		return nil, err
	}

	out, err = f.deps.Provider.Infer(ctx, llm.Request{
		Instructions: inboundEmailInstructions,
		Input:        input,
		Tools:        f.deps.Tools.Subset(tools.ToolClientByEmail, tools.ToolClientPartnerLookup),
		Output:       inboundEmailOutput,
	})
	if err != nil {
		return nil, err
	}

	// Unknown senders: strip any client association the model may have
	// hallucinated and route visibility to the fallback admin.
	clientID, _ := out["clientId"].(string)
	if clientID == "" {
		delete(out, "clientId")
		delete(out, "clientName")
		out["visibleTo"] = []any{f.deps.Config.FallbackAdminID}
		f.deps.Logger.Info("inbound email matched no client",
			zap.String("from", in.From), zap.String("subject", in.Subject))
	}
	return out, nil
}
