package repository

import (
	"context"

	"firmflow/internal/model"
	"firmflow/internal/store"
)

type TodoRepository struct {
	store store.Store
}

func NewTodoRepository(s store.Store) *TodoRepository {
	return &TodoRepository{store: s}
}

// Create appends one todo.
func (r *TodoRepository) Create(ctx context.Context, t *model.Todo) error {
	return r.store.Set(ctx, store.Todos, t.ID, t)
}

// CreateBatch appends all todos in one store batch. Flow side effects go
// through here so a partial failure never leaves half a plan applied.
func (r *TodoRepository) CreateBatch(ctx context.Context, todos []model.Todo) error {
	if len(todos) == 0 {
		return nil
	}
	docs := make(map[string]any, len(todos))
	for i := range todos {
		docs[todos[i].ID] = &todos[i]
	}
	return r.store.SetAll(ctx, store.Todos, docs)
}

// FindByID returns the todo or store.ErrNotFound.
func (r *TodoRepository) FindByID(ctx context.Context, id string) (*model.Todo, error) {
	doc, err := r.store.Get(ctx, store.Todos, id)
	if err != nil {
		return nil, err
	}
	return decodeOne[model.Todo](doc)
}

// FindByAssignee returns todos assigned to one employee.
func (r *TodoRepository) FindByAssignee(ctx context.Context, employeeID string) ([]model.Todo, error) {
	docs, err := r.store.Query(ctx, store.Todos,
		store.Where("assignedTo", store.OpContains, employeeID))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Todo](docs)
}

// All returns every todo record.
func (r *TodoRepository) All(ctx context.Context) ([]model.Todo, error) {
	docs, err := r.store.Query(ctx, store.Todos)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Todo](docs)
}
