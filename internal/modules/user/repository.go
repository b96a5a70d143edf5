package user

import (
	"context"
	"errors"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/docstore"
)

// Repository defines the interface for user data storage.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdateLocation(ctx context.Context, id string, loc *Location, at time.Time) error
}

type documentRepository struct {
	store docstore.Store
}

// NewDocumentRepository stores users in the users collection.
func NewDocumentRepository(store docstore.Store) Repository {
	return &documentRepository{store: store}
}

func (r *documentRepository) CreateUser(ctx context.Context, user *User) error {
	if _, err := r.store.Insert(ctx, docstore.Users, user); err != nil {
		return apperr.Store(err)
	}
	return nil
}

func (r *documentRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var users []User
	q := docstore.Where(docstore.Eq("email", email))
	q.Limit = 1
	if err := r.store.Find(ctx, docstore.Users, q, &users); err != nil {
		return nil, apperr.Store(err)
	}
	if len(users) == 0 {
		return nil, apperr.NotFound("user %s not found", email)
	}
	return &users[0], nil
}

func (r *documentRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := r.store.Get(ctx, docstore.Users, id, &u); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperr.NotFound("user %s not found", id)
		}
		return nil, apperr.Store(err)
	}
	return &u, nil
}

func (r *documentRepository) UpdateLocation(ctx context.Context, id string, loc *Location, at time.Time) error {
	err := r.store.Update(ctx, docstore.Users, id, map[string]any{
		"location":  loc,
		"updatedAt": at,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("user %s not found", id)
	}
	if err != nil {
		return apperr.Store(err)
	}
	return nil
}
