package bid

import (
	"context"

	"github.com/freshfarm/vendorgpt-backend/internal/modules/order"
)

// Service defines the bid request lifecycle.
type Service interface {
	// CreateBid posts a pending bid request on behalf of a vendor.
	CreateBid(ctx context.Context, vendor Vendor, req CreateRequest) (*BidRequest, error)

	GetBid(ctx context.Context, id string) (*BidRequest, error)

	// ListVendorBids returns a vendor's bid requests, newest first.
	ListVendorBids(ctx context.Context, vendorID string) ([]BidRequest, error)

	// ListPendingBids returns every open bid request, newest first.
	ListPendingBids(ctx context.Context) ([]BidRequest, error)

	// RejectBid closes a pending bid. Rejecting a rejected bid is a no-op.
	RejectBid(ctx context.Context, id string) (*BidRequest, error)

	// AcceptAndCreateOrder creates the order for a pending bid and marks the
	// bid order_placed in one transaction. Either both writes land or neither.
	AcceptAndCreateOrder(ctx context.Context, id string, w Wholesaler) (*BidRequest, *order.Order, error)
}
