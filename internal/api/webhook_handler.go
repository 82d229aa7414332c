package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "firmflow/contracts/mq"
	"firmflow/internal/mq"
	"firmflow/pkg/metrics"
	"firmflow/pkg/trace"
)

// eventPublisher is the slice of mq.Publisher the handler needs.
type eventPublisher interface {
	Publish(routingKey, traceID string, payload any) error
}

// WebhookHandler accepts batched inbound email deliveries. Accepted events
// are queued and processed asynchronously; the provider only sees 200.
type WebhookHandler struct {
	publisher eventPublisher
	logger    *zap.Logger
}

func NewWebhookHandler(publisher eventPublisher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		publisher: publisher,
		logger:    logger,
	}
}

type inboundEmail struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// HandleInboundEmails handles POST /webhook/emails. The payload is an array
// of email events; a malformed body or any event missing a required field
// rejects the whole delivery so the provider retries it intact.
func (h *WebhookHandler) HandleInboundEmails(c *gin.Context) {
	var events []inboundEmail
	if err := c.ShouldBindJSON(&events); err != nil {
		metrics.RecordWebhookEvent("rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload must be an array of email events"})
		return
	}
	for i, e := range events {
		if e.From == "" || e.Subject == "" || e.Body == "" {
			metrics.RecordWebhookEvent("rejected")
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "event missing required field",
				"index": i,
			})
			return
		}
	}

	traceID := trace.FromContext(c.Request.Context())
	received := time.Now().UTC()
	for _, e := range events {
		payload := mqcontracts.EmailInboundPayload{
			EventID:    uuid.NewString(),
			From:       e.From,
			Subject:    e.Subject,
			Body:       e.Body,
			ReceivedAt: received,
		}
		if err := h.publisher.Publish(mq.RoutingKeyEmailInbound, traceID, payload); err != nil {
			h.logger.Error("Failed to queue inbound email",
				zap.String("from", e.From),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue events"})
			return
		}
		metrics.RecordWebhookEvent("accepted")
	}

	h.logger.Info("Webhook delivery accepted",
		zap.Int("events", len(events)),
		zap.String("trace_id", traceID),
	)
	c.JSON(http.StatusOK, gin.H{"queued": len(events)})
}
