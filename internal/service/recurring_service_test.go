package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "firmflow/contracts/mq"
	"firmflow/internal/model"
	"firmflow/internal/mq"
	"firmflow/internal/repository"
	"firmflow/internal/store"
)

type capturePublisher struct {
	keys     []string
	payloads []any
}

func (p *capturePublisher) Publish(routingKey, traceID string, payload any) error {
	p.keys = append(p.keys, routingKey)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestMaterializeDue(t *testing.T) {
	mem := store.NewMemory()
	recurringRepo := repository.NewRecurringEngagementRepository(mem)
	engagementRepo := repository.NewEngagementRepository(mem)
	pub := &capturePublisher{}
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	svc := NewRecurringService(recurringRepo, engagementRepo, pub, zap.NewNop(),
		func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, recurringRepo.Create(ctx, &model.RecurringEngagement{
		ID: "rec-1", ClientID: "client-1", TypeID: "type-gst", Fee: 5000,
		AssignedTo: []string{"emp-1"}, Cadence: model.CadenceMonthly,
		NextRunDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Active: true,
	}))
	// Not yet due.
	require.NoError(t, recurringRepo.Create(ctx, &model.RecurringEngagement{
		ID: "rec-2", ClientID: "client-2", TypeID: "type-gst",
		Cadence:     model.CadenceMonthly,
		NextRunDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), Active: true,
	}))
	// Inactive templates never run.
	require.NoError(t, recurringRepo.Create(ctx, &model.RecurringEngagement{
		ID: "rec-3", ClientID: "client-3", TypeID: "type-gst",
		Cadence:     model.CadenceMonthly,
		NextRunDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Active: false,
	}))

	created, err := svc.MaterializeDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	// The engagement carries the template's staffing and links back to it.
	engs, err := engagementRepo.FindByAssignee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, engs, 1)
	eng := engs[0]
	require.Equal(t, "client-1", eng.ClientID)
	require.Equal(t, model.StatusPending, eng.Status)
	require.Equal(t, "rec-1", eng.RecurringID)
	require.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), eng.DueDate.UTC())

	// Template advanced one cadence step, so the next sweep skips it.
	due, err := recurringRepo.FindDue(ctx, now)
	require.NoError(t, err)
	require.Empty(t, due)

	require.Equal(t, []string{mq.RoutingKeyEngagementCreated}, pub.keys)
	payload := pub.payloads[0].(mqcontracts.EngagementCreatedPayload)
	require.Equal(t, eng.ID, payload.EngagementID)
	require.Equal(t, "scheduler", payload.CreatedBy)
}

func TestMaterializeDueIdempotentIDs(t *testing.T) {
	mem := store.NewMemory()
	recurringRepo := repository.NewRecurringEngagementRepository(mem)
	engagementRepo := repository.NewEngagementRepository(mem)
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	tpl := &model.RecurringEngagement{
		ID: "rec-1", ClientID: "client-1", TypeID: "type-gst",
		AssignedTo: []string{"emp-1"}, Cadence: model.CadenceMonthly,
		NextRunDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Active: true,
	}

	run := func() string {
		svc := NewRecurringService(recurringRepo, engagementRepo, &capturePublisher{}, zap.NewNop(),
			func() time.Time { return now })
		require.NoError(t, recurringRepo.Create(context.Background(), tpl))
		_, err := svc.MaterializeDue(context.Background())
		require.NoError(t, err)
		engs, err := engagementRepo.FindByAssignee(context.Background(), "emp-1")
		require.NoError(t, err)
		require.Len(t, engs, 1)
		return engs[0].ID
	}

	first := run()
	// A crashed sweep that reruns the same template run regenerates the
	// same engagement id instead of duplicating the engagement.
	second := run()
	require.Equal(t, first, second)
}

func TestNextRunCadences(t *testing.T) {
	from := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), nextRun(from, model.CadenceMonthly))
	require.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), nextRun(from, model.CadenceQuarterly))
	require.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), nextRun(from, model.CadenceYearly))
}
