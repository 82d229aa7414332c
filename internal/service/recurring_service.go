package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "firmflow/contracts/mq"
	"firmflow/internal/model"
	"firmflow/internal/mq"
	"firmflow/internal/repository"
	"firmflow/pkg/trace"
)

// eventPublisher is the slice of mq.Publisher the services need.
type eventPublisher interface {
	Publish(routingKey, traceID string, payload any) error
}

// RecurringService materializes engagements from recurring templates. It
// runs on the scheduler tick; a failed template is logged and skipped so one
// bad record cannot stall the whole sweep.
type RecurringService struct {
	recurring   *repository.RecurringEngagementRepository
	engagements *repository.EngagementRepository
	publisher   eventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

func NewRecurringService(
	recurring *repository.RecurringEngagementRepository,
	engagements *repository.EngagementRepository,
	publisher eventPublisher,
	logger *zap.Logger,
	now func() time.Time,
) *RecurringService {
	if now == nil {
		now = time.Now
	}
	return &RecurringService{
		recurring:   recurring,
		engagements: engagements,
		publisher:   publisher,
		logger:      logger,
		now:         now,
	}
}

// MaterializeDue creates one engagement per due template and advances the
// template's next-run date. Returns how many engagements were created.
func (s *RecurringService) MaterializeDue(ctx context.Context) (int, error) {
	asOf := s.now().UTC()
	due, err := s.recurring.FindDue(ctx, asOf)
	if err != nil {
		s.logger.Error("Failed to list due recurring templates", zap.Error(err))
		return 0, err
	}
	if len(due) == 0 {
		s.logger.Debug("No recurring templates due")
		return 0, nil
	}

	created := 0
	for i := range due {
		tpl := &due[i]
		if err := s.materializeOne(ctx, tpl, asOf); err != nil {
			s.logger.Error("Failed to materialize recurring engagement",
				zap.String("template_id", tpl.ID),
				zap.Error(err),
			)
			continue
		}
		created++
	}

	s.logger.Info("Recurring sweep completed",
		zap.Int("due", len(due)),
		zap.Int("created", created),
	)
	return created, nil
}

func (s *RecurringService) materializeOne(ctx context.Context, tpl *model.RecurringEngagement, asOf time.Time) error {
	// Deterministic id per template run keeps a crashed sweep from creating
	// the same engagement twice.
	runTag := tpl.NextRunDate.UTC().Format("2006-01-02")
	engID := uuid.NewSHA1(uuid.NameSpaceOID, []byte("recurring|"+tpl.ID+"|"+runTag)).String()

	dueDate := nextRun(tpl.NextRunDate, tpl.Cadence)
	eng := &model.Engagement{
		ID:          engID,
		ClientID:    tpl.ClientID,
		TypeID:      tpl.TypeID,
		Status:      model.StatusPending,
		DueDate:     dueDate,
		AssignedTo:  tpl.AssignedTo,
		ReportedTo:  tpl.ReportedTo,
		Fee:         tpl.Fee,
		RecurringID: tpl.ID,
	}
	if err := s.engagements.Create(ctx, eng); err != nil {
		return fmt.Errorf("create engagement: %w", err)
	}

	if err := s.recurring.AdvanceNextRun(ctx, tpl.ID, nextRun(tpl.NextRunDate, tpl.Cadence)); err != nil {
		return fmt.Errorf("advance next run: %w", err)
	}

	payload := mqcontracts.EngagementCreatedPayload{
		EngagementID: eng.ID,
		ClientID:     eng.ClientID,
		TypeID:       eng.TypeID,
		DueDate:      eng.DueDate.UTC().Format("2006-01-02"),
		AssignedTo:   eng.AssignedTo,
		CreatedBy:    "scheduler",
	}
	if err := s.publisher.Publish(mq.RoutingKeyEngagementCreated, trace.GenerateTraceID(), payload); err != nil {
		// Engagement is already persisted; the kickoff todo just won't be
		// auto-filed.
		s.logger.Warn("Failed to publish engagement.created",
			zap.String("engagement_id", eng.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("Recurring engagement materialized",
		zap.String("template_id", tpl.ID),
		zap.String("engagement_id", eng.ID),
		zap.String("due_date", payload.DueDate),
	)
	return nil
}

// nextRun advances a run date by one cadence step.
func nextRun(from time.Time, cadence string) time.Time {
	switch cadence {
	case model.CadenceQuarterly:
		return from.AddDate(0, 3, 0)
	case model.CadenceYearly:
		return from.AddDate(1, 0, 0)
	default: // Monthly
		return from.AddDate(0, 1, 0)
	}
}
