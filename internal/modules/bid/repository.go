package bid

import (
	"context"
	"errors"
	"sort"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/docstore"
)

// noLongerAvailable is shown when a bid moved on before the caller's write landed.
const noLongerAvailable = "bid no longer available"

// Repository defines data access for bid requests.
type Repository interface {
	Create(ctx context.Context, b *BidRequest) error
	GetByID(ctx context.Context, id string) (*BidRequest, error)
	ListByVendor(ctx context.Context, vendorID string) ([]BidRequest, error)
	ListByStatus(ctx context.Context, status Status) ([]BidRequest, error)
	ListAll(ctx context.Context) ([]BidRequest, error)
	// Transition applies set only while the stored status is still from.
	Transition(ctx context.Context, id string, from Status, set map[string]any) error
}

type documentRepository struct {
	store docstore.Store
}

// NewDocumentRepository stores bid requests in the bidRequests collection.
// Pass a transaction handle to take part in a store transaction.
func NewDocumentRepository(store docstore.Store) Repository {
	return &documentRepository{store: store}
}

func (r *documentRepository) Create(ctx context.Context, b *BidRequest) error {
	if _, err := r.store.Insert(ctx, docstore.BidRequests, b); err != nil {
		return apperr.Store(err)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*BidRequest, error) {
	var b BidRequest
	if err := r.store.Get(ctx, docstore.BidRequests, id, &b); err != nil {
		return nil, translate(err, id)
	}
	return &b, nil
}

func (r *documentRepository) ListByVendor(ctx context.Context, vendorID string) ([]BidRequest, error) {
	return r.find(ctx, docstore.Where(docstore.Eq("vendorId", vendorID)))
}

func (r *documentRepository) ListByStatus(ctx context.Context, status Status) ([]BidRequest, error) {
	return r.find(ctx, docstore.Where(docstore.Eq("status", status)))
}

func (r *documentRepository) ListAll(ctx context.Context) ([]BidRequest, error) {
	return r.find(ctx, docstore.Query{})
}

func (r *documentRepository) Transition(ctx context.Context, id string, from Status, set map[string]any) error {
	if err := r.store.Update(ctx, docstore.BidRequests, id, set, docstore.Eq("status", from)); err != nil {
		return translate(err, id)
	}
	return nil
}

// find returns bids newest first.
func (r *documentRepository) find(ctx context.Context, q docstore.Query) ([]BidRequest, error) {
	var bids []BidRequest
	if err := r.store.Find(ctx, docstore.BidRequests, q, &bids); err != nil {
		return nil, apperr.Store(err)
	}
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].CreatedAt.After(bids[j].CreatedAt)
	})
	return bids, nil
}

func translate(err error, id string) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.NotFound("bid request %s not found", id)
	case errors.Is(err, docstore.ErrPreconditionFailed):
		return apperr.Conflict(noLongerAvailable, err)
	default:
		return apperr.Store(err)
	}
}
