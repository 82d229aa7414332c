package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "firmflow/contracts/mq"
	"firmflow/internal/flow"
	"firmflow/internal/model"
	"firmflow/internal/repository"
)

// EngagementCreatedHandler files a kickoff todo with the assigned team when
// a new engagement lands.
type EngagementCreatedHandler struct {
	clients *repository.ClientRepository
	applier *flow.Applier
	deduper deduper
	logger  *zap.Logger
}

func NewEngagementCreatedHandler(
	clients *repository.ClientRepository,
	applier *flow.Applier,
	deduper deduper,
	logger *zap.Logger,
) *EngagementCreatedHandler {
	return &EngagementCreatedHandler{
		clients: clients,
		applier: applier,
		deduper: deduper,
		logger:  logger,
	}
}

func (h *EngagementCreatedHandler) HandleEngagementCreated(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.EngagementCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal engagement created payload (non-retryable, dropping)",
			zap.Error(err),
			zap.String("raw_payload", string(raw)),
		)
		return nil
	}
	if len(p.AssignedTo) == 0 {
		h.logger.Debug("Engagement created with no assignees, nothing to do",
			zap.String("engagement_id", p.EngagementID))
		return nil
	}

	if !h.deduper.AcquireOnce(ctx, "engagement_created", p.EngagementID) {
		return nil
	}

	clientName := p.ClientID
	if c, err := h.clients.FindByID(ctx, p.ClientID); err == nil {
		clientName = c.Name
	}

	specs := []flow.TodoSpec{{
		Type:        model.TodoGeneralTask,
		Text:        fmt.Sprintf("Kick off the new engagement for %s, due %s", clientName, p.DueDate),
		AssignedTo:  p.AssignedTo,
		RelatedType: model.RelatedEngagement,
		RelatedID:   p.EngagementID,
	}}
	if _, err := h.applier.CreateTodos(ctx, "engagement_created", p.EngagementID, p.CreatedBy, specs); err != nil {
		h.deduper.Release(ctx, "engagement_created", p.EngagementID)
		h.logger.Error("Failed to create kickoff todo",
			zap.String("engagement_id", p.EngagementID),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("Kickoff todo created",
		zap.String("engagement_id", p.EngagementID),
		zap.Strings("assigned_to", p.AssignedTo),
	)
	return nil
}
