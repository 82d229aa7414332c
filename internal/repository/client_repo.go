package repository

import (
	"context"

	"firmflow/internal/model"
	"firmflow/internal/store"
)

type ClientRepository struct {
	store store.Store
}

func NewClientRepository(s store.Store) *ClientRepository {
	return &ClientRepository{store: s}
}

// FindByID returns the client or store.ErrNotFound.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*model.Client, error) {
	doc, err := r.store.Get(ctx, store.Clients, id)
	if err != nil {
		return nil, err
	}
	return decodeOne[model.Client](doc)
}

// FindByEmail returns the client whose contact email matches, or nil when
// no client matches. A missing client is not an error here.
func (r *ClientRepository) FindByEmail(ctx context.Context, email string) (*model.Client, error) {
	docs, err := r.store.Query(ctx, store.Clients, store.Where("email", store.OpEq, email))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decodeOne[model.Client](docs[0])
}

// Create writes a new client document.
func (r *ClientRepository) Create(ctx context.Context, c *model.Client) error {
	return r.store.Set(ctx, store.Clients, c.ID, c)
}
