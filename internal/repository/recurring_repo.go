package repository

import (
	"context"
	"time"

	"firmflow/internal/model"
	"firmflow/internal/store"
)

type RecurringEngagementRepository struct {
	store store.Store
}

func NewRecurringEngagementRepository(s store.Store) *RecurringEngagementRepository {
	return &RecurringEngagementRepository{store: s}
}

// FindDue returns active templates whose next-run date has arrived.
func (r *RecurringEngagementRepository) FindDue(ctx context.Context, asOf time.Time) ([]model.RecurringEngagement, error) {
	docs, err := r.store.Query(ctx, store.RecurringEngagements,
		store.Where("active", store.OpEq, "true"),
		store.Where("nextRunDate", store.OpLte, dateText(asOf)))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.RecurringEngagement](docs)
}

// AdvanceNextRun moves the template's next-run date forward.
func (r *RecurringEngagementRepository) AdvanceNextRun(ctx context.Context, id string, next time.Time) error {
	return r.store.Update(ctx, store.RecurringEngagements, id, map[string]any{
		"nextRunDate": next.UTC().Format(time.RFC3339),
	})
}

func (r *RecurringEngagementRepository) Create(ctx context.Context, t *model.RecurringEngagement) error {
	doc := *t
	doc.NextRunDate = doc.NextRunDate.UTC()
	return r.store.Set(ctx, store.RecurringEngagements, doc.ID, &doc)
}
