package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"firmflow/internal/llm"
	"firmflow/internal/schema"
	"firmflow/internal/tools"
)

const generateInvoiceInstructions = `You draft invoices for a Chartered Accountancy firm. Using the
engagement, client and issuing firm provided, write a formal invoice email:
an itemised description of the service rendered, the amount due, payment
instructions referencing the firm's details (include GSTIN and PAN when
present), and a courteous closing. Use the invoice number exactly as given.
Do not invent line items or amounts beyond what the engagement supports.`

var generateInvoiceInput = &schema.Object{
	Name: "generate_invoice_input",
	Fields: []schema.Field{
		{Name: "engagementId", Type: schema.TypeString, Required: true},
	},
}

var generateInvoiceOutput = &schema.Object{
	Name: "generate_invoice_output",
	Fields: []schema.Field{
		{Name: "invoiceNumber", Type: schema.TypeString, Required: true},
		{Name: "recipient", Type: schema.TypeString, Required: true},
		{Name: "subject", Type: schema.TypeString, Required: true},
		{Name: "body", Type: schema.TypeString, Required: true},
		{Name: "total", Type: schema.TypeNumber, Required: true},
	},
}

// InvoiceNumber derives the deterministic invoice number for an engagement:
// the issue year plus the uppercased head of the engagement id.
func InvoiceNumber(year int, engagementID string) string {
	head := engagementID
	if len(head) > 5 {
		head = head[:5]
	}
	return fmt.Sprintf("INV-%d-%s", year, strings.ToUpper(head))
}

// GenerateInvoiceFlow drafts an invoice email for a completed engagement.
// The invoice number and recipient are derived here, not by the model.
type GenerateInvoiceFlow struct {
	deps Deps
}

func NewGenerateInvoiceFlow(deps Deps) *GenerateInvoiceFlow {
	return &GenerateInvoiceFlow{deps: deps}
}

func (f *GenerateInvoiceFlow) Run(ctx context.Context, input map[string]any) (out map[string]any, err error) {
	start := time.Now()
	defer func() { observe(FlowGenerateInvoice, start, err) }()

	var in struct {
		EngagementID string `json:"engagementId"`
	}
	if err = decodeInput(generateInvoiceInput, input, &in); err != nil {
		return nil, err
	}

	// The engagement/client/firm chain comes from the aggregator tool, so
	// the gather and the model share one definition of the chain.
	chainTool := f.deps.Tools.Get(tools.ToolInvoiceData)
	if chainTool == nil {
		return nil, fmt.Errorf("tool %s not registered", tools.ToolInvoiceData)
	}
	chain, err := chainTool.Call(ctx, map[string]any{"engagementId": in.EngagementID})
	if err != nil {
		return nil, err
	}
	if found, _ := chain["found"].(bool); !found {
		return nil, fmt.Errorf("%w: engagement %s has a broken client or firm link", ErrMissingReference, in.EngagementID)
	}
	engDoc, _ := chain["engagement"].(map[string]any)
	clientDoc, _ := chain["client"].(map[string]any)
	firmDoc, _ := chain["firm"].(map[string]any)

	recipient, _ := clientDoc["email"].(string)
	if recipient == "" {
		return nil, fmt.Errorf("%w: client %v has no email address", ErrMissingReference, clientDoc["id"])
	}

	engID, _ := engDoc["id"].(string)
	number := InvoiceNumber(f.deps.now().Year(), engID)

	out, err = f.deps.Provider.Infer(ctx, llm.Request{
		Instructions: generateInvoiceInstructions,
		Input: map[string]any{
			"invoiceNumber": number,
			"engagement":    pick(engDoc, "id", "typeId", "status", "fee", "dueDate", "budgetedHours"),
			"client":        pick(clientDoc, "id", "name", "email", "address"),
			"firm":          pick(firmDoc, "name", "address", "gstin", "pan"),
		},
		Output: generateInvoiceOutput,
	})
	if err != nil {
		return nil, err
	}

	// The number and recipient are policy, not model output; overwrite
	// whatever came back.
	if got, _ := out["invoiceNumber"].(string); got != number {
		f.deps.Logger.Warn("model altered invoice number, restoring",
			zap.String("engagementId", engID), zap.String("got", got))
	}
	out["invoiceNumber"] = number
	out["recipient"] = recipient
	return out, nil
}

// pick copies the named keys that are present in the source document.
func pick(doc map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := doc[k]; ok {
			out[k] = v
		}
	}
	return out
}
