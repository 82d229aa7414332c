package repository

import (
	"context"

	"firmflow/internal/model"
	"firmflow/internal/store"
)

type EmployeeRepository struct {
	store store.Store
}

func NewEmployeeRepository(s store.Store) *EmployeeRepository {
	return &EmployeeRepository{store: s}
}

// FindByID returns the employee or store.ErrNotFound.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	doc, err := r.store.Get(ctx, store.Employees, id)
	if err != nil {
		return nil, err
	}
	return decodeOne[model.Employee](doc)
}

// FindByRole returns all employees whose role set contains the given role
// (department name, "Partner" or "Admin"). No match is an empty slice.
func (r *EmployeeRepository) FindByRole(ctx context.Context, role string) ([]model.Employee, error) {
	docs, err := r.store.Query(ctx, store.Employees, store.Where("roles", store.OpContains, role))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Employee](docs)
}

// All returns every employee record.
func (r *EmployeeRepository) All(ctx context.Context) ([]model.Employee, error) {
	docs, err := r.store.Query(ctx, store.Employees)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Employee](docs)
}

// Create writes a new employee document.
func (r *EmployeeRepository) Create(ctx context.Context, e *model.Employee) error {
	return r.store.Set(ctx, store.Employees, e.ID, e)
}
