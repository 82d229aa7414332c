package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"firmflow/internal/flow"
	"firmflow/internal/llm"
	"firmflow/internal/schema"
)

// runner is what every flow exposes to the API layer.
type runner interface {
	Run(ctx context.Context, input map[string]any) (map[string]any, error)
}

// FlowHandler exposes one POST endpoint per orchestrator. The request body
// is the flow input document, the response the validated flow output.
type FlowHandler struct {
	InboundEmail   runner
	BulkSchedule   runner
	TemplatedEmail runner
	Invoice        runner
	Leave          runner
	Review         runner
	Reallocate     runner

	logger *zap.Logger
}

func NewFlowHandler(
	inboundEmail *flow.InboundEmailFlow,
	bulkSchedule *flow.BulkScheduleFlow,
	templatedEmail *flow.TemplatedEmailFlow,
	invoice *flow.GenerateInvoiceFlow,
	leave *flow.LeaveFlow,
	review *flow.PerformanceReviewFlow,
	reallocate *flow.ReallocateFlow,
	logger *zap.Logger,
) *FlowHandler {
	return &FlowHandler{
		InboundEmail:   inboundEmail,
		BulkSchedule:   bulkSchedule,
		TemplatedEmail: templatedEmail,
		Invoice:        invoice,
		Leave:          leave,
		Review:         review,
		Reallocate:     reallocate,
		logger:         logger,
	}
}

func (h *FlowHandler) ClassifyEmail(c *gin.Context)  { h.run(c, h.InboundEmail) }
func (h *FlowHandler) ScheduleBatch(c *gin.Context)  { h.run(c, h.BulkSchedule) }
func (h *FlowHandler) DraftEmail(c *gin.Context)     { h.run(c, h.TemplatedEmail) }
func (h *FlowHandler) DraftInvoice(c *gin.Context)   { h.run(c, h.Invoice) }
func (h *FlowHandler) PlanLeave(c *gin.Context)      { h.run(c, h.Leave) }
func (h *FlowHandler) ReviewEmployee(c *gin.Context) { h.run(c, h.Review) }
func (h *FlowHandler) ReallocateWork(c *gin.Context) { h.run(c, h.Reallocate) }

func (h *FlowHandler) run(c *gin.Context, r runner) {
	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON object"})
		return
	}

	out, err := r.Run(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *FlowHandler) respondError(c *gin.Context, err error) {
	var vErr *schema.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.Is(err, flow.ErrMissingReference):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, llm.ErrTimeout),
		errors.Is(err, llm.ErrNoOutput),
		errors.Is(err, llm.ErrInvalidOutput),
		errors.Is(err, llm.ErrToolFailed),
		errors.Is(err, llm.ErrToolBudget):
		h.logger.Error("Inference failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "inference failed, try again"})
	default:
		h.logger.Error("Flow failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
