package bid

import (
	"context"
	"strings"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/docstore"
	"github.com/freshfarm/vendorgpt-backend/internal/metrics"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/order"
	"go.uber.org/zap"
)

const defaultWholesalerName = "Wholesaler"

type service struct {
	store   docstore.Store
	repo    Repository
	metrics *metrics.AppMetrics
	log     *zap.Logger
	now     func() time.Time
}

// NewService creates the bid service. Acceptance needs store transactions, so
// the service takes the store rather than a repository.
func NewService(store docstore.Store, m *metrics.AppMetrics, log *zap.Logger) Service {
	return &service{
		store:   store,
		repo:    NewDocumentRepository(store),
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

func (s *service) CreateBid(ctx context.Context, vendor Vendor, req CreateRequest) (*BidRequest, error) {
	if vendor.ID == "" {
		return nil, apperr.Validation("vendor identity is required")
	}
	req.ProductName = strings.TrimSpace(req.ProductName)
	req.Location = strings.TrimSpace(req.Location)
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}

	b := &BidRequest{
		VendorID:    vendor.ID,
		VendorName:  vendor.Name,
		VendorEmail: vendor.Email,
		ProductName: req.ProductName,
		Description: strings.TrimSpace(req.Description),
		Quantity:    req.Quantity,
		BidPrice:    req.BidPrice,
		Urgency:     req.Urgency,
		Location:    req.Location,
		Status:      StatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.metrics.RecordBidCreated(ctx)
	s.log.Info("Bid request created",
		zap.String("bid_id", b.ID),
		zap.String("vendor_id", b.VendorID),
		zap.String("product", b.ProductName))
	return b, nil
}

func (s *service) GetBid(ctx context.Context, id string) (*BidRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListVendorBids(ctx context.Context, vendorID string) ([]BidRequest, error) {
	return s.repo.ListByVendor(ctx, vendorID)
}

func (s *service) ListPendingBids(ctx context.Context) ([]BidRequest, error) {
	return s.repo.ListByStatus(ctx, StatusPending)
}

func (s *service) RejectBid(ctx context.Context, id string) (*BidRequest, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusRejected {
		return b, nil
	}
	if !CanTransition(b.Status, StatusRejected) {
		return nil, apperr.Conflict(noLongerAvailable, nil)
	}

	now := s.now().UTC()
	err = s.repo.Transition(ctx, id, StatusPending, map[string]any{
		"status":     StatusRejected,
		"rejectedAt": now,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordBidTransition(ctx, string(StatusRejected))
	s.log.Info("Bid request rejected", zap.String("bid_id", id))
	b.Status = StatusRejected
	b.RejectedAt = &now
	return b, nil
}

func (s *service) AcceptAndCreateOrder(ctx context.Context, id string, w Wholesaler) (*BidRequest, *order.Order, error) {
	if w.ID == "" {
		return nil, nil, apperr.Validation("wholesaler identity is required")
	}
	name := strings.TrimSpace(w.Name)
	if name == "" {
		name = defaultWholesalerName
	}

	var (
		accepted *BidRequest
		placed   *order.Order
	)
	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Store) error {
		bids := NewDocumentRepository(tx)
		b, err := bids.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != StatusPending {
			return apperr.Conflict(noLongerAvailable, nil)
		}

		now := s.now().UTC()
		o := order.NewFromBid(order.BidTerms{
			BidRequestID: b.ID,
			ProductName:  b.ProductName,
			Quantity:     b.Quantity,
			BidPrice:     b.BidPrice,
			VendorID:     b.VendorID,
			VendorName:   b.VendorName,
			Location:     b.Location,
		}, w.ID, name, now)
		if err := order.NewDocumentRepository(tx).Create(ctx, o); err != nil {
			return err
		}

		// the status guard makes a concurrent accept or reject lose cleanly
		err = bids.Transition(ctx, id, StatusPending, map[string]any{
			"status":            StatusOrderPlaced,
			"acceptedBy":        w.ID,
			"acceptedAt":        now,
			"wholesalerName":    name,
			"wholesalerContact": w.Contact,
			"orderId":           o.ID,
			"orderPlacedAt":     now,
		})
		if err != nil {
			return err
		}

		b.Status = StatusOrderPlaced
		b.AcceptedBy = w.ID
		b.AcceptedAt = &now
		b.WholesalerName = name
		b.WholesalerContact = w.Contact
		b.OrderID = o.ID
		b.OrderPlacedAt = &now
		accepted, placed = b, o
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			s.log.Info("Bid acceptance lost", zap.String("bid_id", id), zap.String("wholesaler_id", w.ID))
		}
		return nil, nil, err
	}

	s.metrics.RecordBidTransition(ctx, string(StatusOrderPlaced))
	s.metrics.RecordOrderCreated(ctx, placed.TotalAmount)
	s.log.Info("Bid accepted and order placed",
		zap.String("bid_id", id),
		zap.String("order_id", placed.ID),
		zap.String("wholesaler_id", w.ID),
		zap.Float64("total_amount", placed.TotalAmount))
	return accepted, placed, nil
}
