package catalog

import (
	"context"
	"errors"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/docstore"
)

// Repository defines the interface for product storage.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, id string, set map[string]any, expect ...docstore.Filter) error
	Delete(ctx context.Context, id string) error
}

type documentRepository struct {
	store docstore.Store
}

// NewDocumentRepository stores products in the products collection. Pass a
// transaction handle to take part in a store transaction.
func NewDocumentRepository(store docstore.Store) Repository {
	return &documentRepository{store: store}
}

func (r *documentRepository) Create(ctx context.Context, p *Product) error {
	if _, err := r.store.Insert(ctx, docstore.Products, p); err != nil {
		return apperr.Store(err)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := r.store.Get(ctx, docstore.Products, id, &p); err != nil {
		return nil, translate(err, id)
	}
	return &p, nil
}

func (r *documentRepository) List(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.store.Find(ctx, docstore.Products, docstore.Query{}, &products); err != nil {
		return nil, apperr.Store(err)
	}
	return products, nil
}

func (r *documentRepository) Update(ctx context.Context, id string, set map[string]any, expect ...docstore.Filter) error {
	if err := r.store.Update(ctx, docstore.Products, id, set, expect...); err != nil {
		return translate(err, id)
	}
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, docstore.Products, id); err != nil {
		return translate(err, id)
	}
	return nil
}

func translate(err error, id string) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.NotFound("product %s not found", id)
	case errors.Is(err, docstore.ErrPreconditionFailed):
		return apperr.Conflict("product changed, please retry", err)
	default:
		return apperr.Store(err)
	}
}
