package order

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/docstore"
)

// Repository defines data access for orders.
type Repository interface {
	// Create persists a new order and assigns its id.
	Create(ctx context.Context, o *Order) error

	// GetByID retrieves an order by id.
	GetByID(ctx context.Context, id string) (*Order, error)

	// ListByVendor returns the vendor's orders, newest first.
	ListByVendor(ctx context.Context, vendorID string) ([]Order, error)

	// ListByWholesaler returns the wholesaler's orders, newest first.
	ListByWholesaler(ctx context.Context, wholesalerID string) ([]Order, error)

	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]Order, error)

	// UpdateStatus moves the order from one status to another. It fails with a
	// conflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error
}

type documentRepository struct {
	store docstore.Store
}

// NewDocumentRepository stores orders in the orders collection. Pass a
// transaction handle to take part in a store transaction.
func NewDocumentRepository(store docstore.Store) Repository {
	return &documentRepository{store: store}
}

func (r *documentRepository) Create(ctx context.Context, o *Order) error {
	if _, err := r.store.Insert(ctx, docstore.Orders, o); err != nil {
		return apperr.Store(err)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	if err := r.store.Get(ctx, docstore.Orders, id, &o); err != nil {
		return nil, translate(err, id)
	}
	return &o, nil
}

func (r *documentRepository) ListByVendor(ctx context.Context, vendorID string) ([]Order, error) {
	return r.find(ctx, docstore.Where(docstore.Eq("vendorId", vendorID)))
}

func (r *documentRepository) ListByWholesaler(ctx context.Context, wholesalerID string) ([]Order, error) {
	return r.find(ctx, docstore.Where(docstore.Eq("wholesalerId", wholesalerID)))
}

func (r *documentRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.find(ctx, docstore.Query{})
}

func (r *documentRepository) UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error {
	err := r.store.Update(ctx, docstore.Orders, id,
		map[string]any{"status": to, "updatedAt": at},
		docstore.Eq("status", from))
	if err != nil {
		return translate(err, id)
	}
	return nil
}

func (r *documentRepository) find(ctx context.Context, q docstore.Query) ([]Order, error) {
	var orders []Order
	if err := r.store.Find(ctx, docstore.Orders, q, &orders); err != nil {
		return nil, apperr.Store(err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func translate(err error, id string) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.NotFound("order %s not found", id)
	case errors.Is(err, docstore.ErrPreconditionFailed):
		return apperr.Conflict("order status changed, please refresh", err)
	default:
		return apperr.Store(err)
	}
}
