package repository

import (
	"context"

	"firmflow/internal/model"
	"firmflow/internal/store"
)

type UserRepository struct {
	store store.Store
}

func NewUserRepository(s store.Store) *UserRepository {
	return &UserRepository{store: s}
}

// FindByEmail returns the user, or nil when no account exists.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	docs, err := r.store.Query(ctx, store.Users, store.Where("email", store.OpEq, email))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decodeOne[model.User](docs[0])
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return r.store.Set(ctx, store.Users, u.ID, u)
}
