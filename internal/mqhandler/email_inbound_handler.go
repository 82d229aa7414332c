package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "firmflow/contracts/mq"
	"firmflow/internal/flow"
	"firmflow/internal/mq"
	"firmflow/internal/util"
	"firmflow/pkg/trace"
)

const (
	maxRetries = 5 // 最大重试次数
)

// eventPublisher is the slice of mq.Publisher the handlers need.
type eventPublisher interface {
	Publish(routingKey, traceID string, payload any) error
}

// deduper is the slice of util.Deduper the handlers need. Every path that
// nack-requeues must Release first, or the redelivery is dropped as a
// duplicate.
type deduper interface {
	AcquireOnce(ctx context.Context, handler, eventID string) bool
	Release(ctx context.Context, handler, eventID string)
}

// EmailInboundHandler consumes inbound email events, runs the
// classification flow, and fans the result out for notification consumers.
type EmailInboundHandler struct {
	classify     *flow.InboundEmailFlow
	publisher    eventPublisher
	retryCounter *util.RetryCounter
	deduper      deduper
	logger       *zap.Logger
}

func NewEmailInboundHandler(
	classify *flow.InboundEmailFlow,
	publisher eventPublisher,
	retryCounter *util.RetryCounter,
	deduper deduper,
	logger *zap.Logger,
) *EmailInboundHandler {
	return &EmailInboundHandler{
		classify:     classify,
		publisher:    publisher,
		retryCounter: retryCounter,
		deduper:      deduper,
		logger:       logger,
	}
}

// HandleEmailInbound is idempotent and bounds retries: retryable failures
// are requeued until maxRetries, everything else is logged and dropped.
func (h *EmailInboundHandler) HandleEmailInbound(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.EmailInboundPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		// JSON decode 错误 - 不可重试
		h.logger.Error("Failed to unmarshal email inbound payload (non-retryable, dropping)",
			zap.Error(err),
			zap.String("raw_payload", string(raw)),
		)
		return nil
	}

	log := h.logger.With(
		zap.String("event_id", p.EventID),
		zap.String("from", p.From),
		zap.String("trace_id", trace.FromContext(ctx)),
	)
	log.Info("Processing inbound email", zap.String("subject", p.Subject))

	// Redis 去重：同一 webhook 事件只分类一次
	if !h.deduper.AcquireOnce(ctx, "email_inbound", p.EventID) {
		return nil
	}

	out, err := h.classify.Run(ctx, map[string]any{
		"from":    p.From,
		"subject": p.Subject,
		"body":    p.Body,
	})
	if err != nil {
		return h.handleFlowError(ctx, log, p.EventID, err)
	}

	result := mqcontracts.EmailClassifiedPayload{
		EventID:  p.EventID,
		Category: str(out, "category"),
		Summary:  str(out, "summary"),
		ClientID: str(out, "clientId"),
	}
	if visible, ok := out["visibleTo"].([]any); ok {
		for _, v := range visible {
			if s, ok := v.(string); ok {
				result.VisibleTo = append(result.VisibleTo, s)
			}
		}
	}
	if err := h.publisher.Publish(mq.RoutingKeyEmailClassified, trace.FromContext(ctx), result); err != nil {
		log.Error("Failed to publish classification result", zap.Error(err))
		h.deduper.Release(ctx, "email_inbound", p.EventID)
		return err
	}

	if err := h.retryCounter.Reset(ctx, util.FormatRetryKey("email_inbound", p.EventID)); err != nil {
		log.Warn("Failed to reset retry counter", zap.Error(err))
	}
	log.Info("Inbound email classified", zap.String("category", result.Category))
	return nil
}

// handleFlowError decides whether the event goes back on the queue. A nil
// return acks (drops) the message.
func (h *EmailInboundHandler) handleFlowError(ctx context.Context, log *zap.Logger, eventID string, err error) error {
	isRetryable, errType := util.IsRetryableError(err)
	log.Error("Classification flow failed",
		zap.String("error_type", errType),
		zap.Bool("retryable", isRetryable),
		zap.Error(err),
	)
	if !isRetryable {
		return nil
	}

	key := util.FormatRetryKey("email_inbound", eventID)
	count, cerr := h.retryCounter.IncrementAndGet(ctx, key)
	if cerr != nil {
		log.Warn("Retry counter unavailable, requeueing anyway", zap.Error(cerr))
		h.deduper.Release(ctx, "email_inbound", eventID)
		return err
	}
	if !util.ShouldRetry(count, maxRetries, isRetryable) {
		log.Error("Max retries exceeded, dropping event",
			zap.Int64("retry_count", count),
		)
		return nil
	}

	// 让 deduper 放行下一次重试
	h.deduper.Release(ctx, "email_inbound", eventID)
	return fmt.Errorf("retry %d/%d: %w", count, maxRetries, err)
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
