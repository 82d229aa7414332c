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

// mailer is the slice of the outbound mail service this handler needs.
type mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailClassifiedHandler fans a finished classification out to the people it
// concerns: urgent emails get a todo plus a heads-up mail for every employee
// the classification made the thread visible to. Everything else is already
// persisted upstream, so non-urgent results are acked without side effects.
type EmailClassifiedHandler struct {
	employees *repository.EmployeeRepository
	applier   *flow.Applier
	mail      mailer
	deduper   deduper
	logger    *zap.Logger
}

func NewEmailClassifiedHandler(
	employees *repository.EmployeeRepository,
	applier *flow.Applier,
	mail mailer,
	deduper deduper,
	logger *zap.Logger,
) *EmailClassifiedHandler {
	return &EmailClassifiedHandler{
		employees: employees,
		applier:   applier,
		mail:      mail,
		deduper:   deduper,
		logger:    logger,
	}
}

func (h *EmailClassifiedHandler) HandleEmailClassified(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.EmailClassifiedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal email classified payload (non-retryable, dropping)",
			zap.Error(err),
			zap.String("raw_payload", string(raw)),
		)
		return nil
	}

	if p.Category != model.EmailUrgent {
		h.logger.Debug("Non-urgent classification, no fan-out",
			zap.String("event_id", p.EventID),
			zap.String("category", p.Category),
		)
		return nil
	}
	if len(p.VisibleTo) == 0 {
		h.logger.Warn("Urgent email with empty visibility, nobody to notify",
			zap.String("event_id", p.EventID))
		return nil
	}

	if !h.deduper.AcquireOnce(ctx, "email_classified", p.EventID) {
		return nil
	}

	relatedType, relatedID := "", ""
	if p.ClientID != "" {
		relatedType, relatedID = model.RelatedClient, p.ClientID
	}
	specs := []flow.TodoSpec{{
		Type:        model.TodoGeneralTask,
		Text:        fmt.Sprintf("Urgent client email needs attention: %s", p.Summary),
		AssignedTo:  p.VisibleTo,
		RelatedType: relatedType,
		RelatedID:   relatedID,
	}}
	if _, err := h.applier.CreateTodos(ctx, "email_classified", p.EventID, "system", specs); err != nil {
		h.deduper.Release(ctx, "email_classified", p.EventID)
		h.logger.Error("Failed to create urgent email todo",
			zap.String("event_id", p.EventID),
			zap.Error(err),
		)
		return err
	}

	// 邮件提醒尽力送达，失败不重试（todo 已落库）
	for _, empID := range p.VisibleTo {
		emp, err := h.employees.FindByID(ctx, empID)
		if err != nil || emp.Email == "" {
			h.logger.Warn("Skipping mail alert, no address for assignee",
				zap.String("employee_id", empID))
			continue
		}
		if err := h.mail.Send(ctx, emp.Email, "Urgent client email", p.Summary); err != nil {
			h.logger.Warn("Mail alert failed", zap.String("to", emp.Email), zap.Error(err))
		}
	}

	h.logger.Info("Urgent email fan-out complete",
		zap.String("event_id", p.EventID),
		zap.Strings("notified", p.VisibleTo),
	)
	return nil
}
