// Package llm wraps the model call. A flow hands the adapter rendered
// instructions, a typed input payload, the tools the model may invoke, and
// the schema its answer must satisfy; the adapter owns the tool-calling loop
// and returns a validated output map or fails. Stateless per call.
package llm

import (
	"context"
	"errors"

	"firmflow/internal/schema"
	"firmflow/internal/tools"
)

// Request is one inference call.
type Request struct {
	// Instructions is the rendered system prompt for this flow.
	Instructions string
	// Input is the JSON payload presented to the model as the task.
	Input map[string]any
	// Tools the model may invoke zero or more times mid-inference. Nil
	// means the model gets no tools.
	Tools *tools.Registry
	// Output is the schema the final answer must validate against.
	Output *schema.Object
}

// Provider is the single capability orchestrators depend on. Tests
// substitute a deterministic fake; production wires the OpenAI provider.
type Provider interface {
	Infer(ctx context.Context, req Request) (map[string]any, error)
}

var (
	// ErrNoOutput: the model returned neither tool calls nor content.
	ErrNoOutput = errors.New("model produced no output")
	// ErrInvalidOutput: the final answer failed output-schema validation.
	// Never auto-repaired.
	ErrInvalidOutput = errors.New("model produced invalid output")
	// ErrToolFailed: a tool call made during inference failed; propagated
	// without retry.
	ErrToolFailed = errors.New("tool invocation failed during inference")
	// ErrTimeout: the bounded inference window elapsed.
	ErrTimeout = errors.New("inference timed out")
	// ErrToolBudget: the model exceeded the allowed number of tool rounds.
	ErrToolBudget = errors.New("tool-call budget exhausted")
)
