package repository

import (
	"context"
	"time"

	"firmflow/internal/model"
	"firmflow/internal/store"
)

type EngagementRepository struct {
	store store.Store
}

func NewEngagementRepository(s store.Store) *EngagementRepository {
	return &EngagementRepository{store: s}
}

// FindByID returns the engagement or store.ErrNotFound.
func (r *EngagementRepository) FindByID(ctx context.Context, id string) (*model.Engagement, error) {
	doc, err := r.store.Get(ctx, store.Engagements, id)
	if err != nil {
		return nil, err
	}
	return decodeOne[model.Engagement](doc)
}

// FindByAssignee returns every engagement the employee is assigned to,
// regardless of status.
func (r *EngagementRepository) FindByAssignee(ctx context.Context, employeeID string) ([]model.Engagement, error) {
	docs, err := r.store.Query(ctx, store.Engagements,
		store.Where("assignedTo", store.OpContains, employeeID))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Engagement](docs)
}

// FindActiveByAssignee returns the employee's engagements in a non-terminal
// status. Completed and Cancelled never appear here.
func (r *EngagementRepository) FindActiveByAssignee(ctx context.Context, employeeID string) ([]model.Engagement, error) {
	all, err := r.FindByAssignee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	active := []model.Engagement{}
	for _, e := range all {
		if model.IsActiveStatus(e.Status) {
			active = append(active, e)
		}
	}
	return active, nil
}

// FindDueBetween returns engagements whose due date falls within [from, to].
func (r *EngagementRepository) FindDueBetween(ctx context.Context, from, to time.Time) ([]model.Engagement, error) {
	docs, err := r.store.Query(ctx, store.Engagements,
		store.Where("dueDate", store.OpGte, dateText(from)),
		store.Where("dueDate", store.OpLte, dateText(to)))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Engagement](docs)
}

// FindByAssigneeDueBetween narrows FindDueBetween to one assignee.
func (r *EngagementRepository) FindByAssigneeDueBetween(ctx context.Context, employeeID string, from, to time.Time) ([]model.Engagement, error) {
	docs, err := r.store.Query(ctx, store.Engagements,
		store.Where("assignedTo", store.OpContains, employeeID),
		store.Where("dueDate", store.OpGte, dateText(from)),
		store.Where("dueDate", store.OpLte, dateText(to)))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Engagement](docs)
}

// Create writes a new engagement document.
func (r *EngagementRepository) Create(ctx context.Context, e *model.Engagement) error {
	doc := *e
	doc.DueDate = doc.DueDate.UTC()
	return r.store.Set(ctx, store.Engagements, doc.ID, &doc)
}

// UpdateAssignees replaces the assignee list. Last write wins; the store has
// no optimistic-concurrency tokens.
func (r *EngagementRepository) UpdateAssignees(ctx context.Context, id string, assignees []string) error {
	return r.store.Update(ctx, store.Engagements, id, map[string]any{"assignedTo": assignees})
}

// UpdateStatus moves the engagement to a new lifecycle status.
func (r *EngagementRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.store.Update(ctx, store.Engagements, id, map[string]any{"status": status})
}
