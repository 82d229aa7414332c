package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"firmflow/config"
	"firmflow/pkg/circuitbreaker"
	"firmflow/pkg/logger"
	"firmflow/pkg/metrics"
)

// OpenAIProvider performs one chat completion per Infer, letting the model
// call registry tools between rounds. A circuit breaker guards the upstream;
// when it opens, Infer fails fast rather than inventing a fallback answer.
type OpenAIProvider struct {
	client        *openai.Client
	model         string
	timeout       time.Duration
	maxToolRounds int
	cb            *circuitbreaker.CircuitBreaker
	logger        *zap.Logger
}

func NewOpenAIProvider(cfg config.InferenceConfig, log *zap.Logger) *OpenAIProvider {
	cbConfig := circuitbreaker.Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 2,
	}

	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = 8
	}

	return &OpenAIProvider{
		client:        openai.NewClient(cfg.APIKey),
		model:         cfg.Model,
		timeout:       cfg.Timeout(),
		maxToolRounds: rounds,
		cb:            circuitbreaker.NewCircuitBreaker(cbConfig),
		logger:        log,
	}
}

// Infer runs the tool loop: completion, execute requested tools, feed
// results back, repeat until the model answers, then validate the answer.
func (p *OpenAIProvider) Infer(ctx context.Context, req Request) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	log := logger.WithTrace(ctx, p.logger)

	input, err := json.Marshal(req.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inference input: %w", err)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.Instructions},
		{Role: openai.ChatMessageRoleUser, Content: string(input)},
	}

	chatTools := p.chatTools(req)

	for round := 0; round <= p.maxToolRounds; round++ {
		resp, err := p.complete(ctx, messages, chatTools)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("%w after %s", ErrTimeout, p.timeout)
			}
			return nil, err
		}

		if len(resp.Choices) == 0 {
			return nil, ErrNoOutput
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) > 0 {
			messages = append(messages, msg)
			results, err := p.executeToolCalls(ctx, req, msg.ToolCalls)
			if err != nil {
				return nil, err
			}
			messages = append(messages, results...)
			continue
		}

		if msg.Content == "" {
			return nil, ErrNoOutput
		}

		var out map[string]any
		if err := json.Unmarshal([]byte(msg.Content), &out); err != nil {
			return nil, fmt.Errorf("%w: not a JSON object: %v", ErrInvalidOutput, err)
		}
		if err := req.Output.Validate(out); err != nil {
			log.Warn("model output rejected", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w (max %d rounds)", ErrToolBudget, p.maxToolRounds)
}

func (p *OpenAIProvider) complete(ctx context.Context, messages []openai.ChatCompletionMessage, chatTools []openai.Tool) (openai.ChatCompletionResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if len(chatTools) > 0 {
		chatReq.Tools = chatTools
	}

	var resp openai.ChatCompletionResponse
	start := time.Now()
	err := p.cb.Execute(func() error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, chatReq)
		return callErr
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordInferenceLatency(p.model, status, time.Since(start))

	return resp, err
}

// executeToolCalls runs each requested tool synchronously through its
// schema-enforcing Call. A single failure aborts the whole inference.
func (p *OpenAIProvider) executeToolCalls(ctx context.Context, req Request, calls []openai.ToolCall) ([]openai.ChatCompletionMessage, error) {
	log := logger.WithTrace(ctx, p.logger)

	out := make([]openai.ChatCompletionMessage, 0, len(calls))
	for _, tc := range calls {
		if req.Tools == nil {
			return nil, fmt.Errorf("%w: no tools available but model called %q", ErrToolFailed, tc.Function.Name)
		}
		tool := req.Tools.Get(tc.Function.Name)
		if tool == nil {
			return nil, fmt.Errorf("%w: unknown tool %q", ErrToolFailed, tc.Function.Name)
		}

		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("%w: bad arguments for %q: %v", ErrToolFailed, tc.Function.Name, err)
		}

		start := time.Now()
		result, err := tool.Call(ctx, args)
		if err != nil {
			log.Warn("tool call failed during inference",
				zap.String("tool", tc.Function.Name),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %v", ErrToolFailed, err)
		}
		log.Debug("tool call completed",
			zap.String("tool", tc.Function.Name),
			zap.Duration("took", time.Since(start)),
		)

		body, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot marshal result of %q: %v", ErrToolFailed, tc.Function.Name, err)
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    string(body),
			ToolCallID: tc.ID,
		})
	}
	return out, nil
}

func (p *OpenAIProvider) chatTools(req Request) []openai.Tool {
	if req.Tools == nil {
		return nil
	}
	list := req.Tools.List()
	out := make([]openai.Tool, 0, len(list))
	for _, t := range list {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Input.JSONSchema(),
			},
		})
	}
	return out
}
