package order

import (
	"context"
	"fmt"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/docstore"
	"github.com/freshfarm/vendorgpt-backend/internal/metrics"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/catalog"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the order management business logic.
type Service interface {
	// GetOrder retrieves an order by id.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// ListVendorOrders returns the orders placed by a vendor, newest first.
	ListVendorOrders(ctx context.Context, vendorID string) ([]Order, error)

	// ListWholesalerOrders returns the orders fulfilled by a wholesaler, newest first.
	ListWholesalerOrders(ctx context.Context, wholesalerID string) ([]Order, error)

	// AdvanceStatus moves an order to a legal successor status. Only the
	// order's wholesaler may do so.
	AdvanceStatus(ctx context.Context, actorID, id string, req UpdateStatusRequest) (*Order, error)

	// PurchaseProduct buys units straight from a listing and decrements its stock.
	PurchaseProduct(ctx context.Context, vendorID, productID string, req PurchaseRequest) (*Purchase, error)
}

// ProductCache is told when a purchase changed a listing's stock.
type ProductCache interface {
	InvalidateProducts(ctx context.Context)
}

type service struct {
	store    docstore.Store
	repo     Repository
	products ProductCache
	metrics  *metrics.AppMetrics
	log      *zap.Logger
	now      func() time.Time
}

// NewService creates a new order service.
func NewService(store docstore.Store, products ProductCache, m *metrics.AppMetrics, log *zap.Logger) Service {
	return &service{
		store:    store,
		repo:     NewDocumentRepository(store),
		products: products,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListVendorOrders(ctx context.Context, vendorID string) ([]Order, error) {
	return s.repo.ListByVendor(ctx, vendorID)
}

func (s *service) ListWholesalerOrders(ctx context.Context, wholesalerID string) ([]Order, error) {
	return s.repo.ListByWholesaler(ctx, wholesalerID)
}

func (s *service) AdvanceStatus(ctx context.Context, actorID, id string, req UpdateStatusRequest) (*Order, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.WholesalerID != actorID {
		return nil, apperr.Forbidden("only the fulfilling wholesaler can update this order")
	}
	if !CanTransition(o.Status, req.Status) {
		return nil, apperr.InvalidTransition(string(o.Status), string(req.Status))
	}

	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, o.Status, req.Status, now); err != nil {
		return nil, err
	}
	s.metrics.RecordOrderTransition(ctx, string(req.Status))
	s.log.Info("Order status updated",
		zap.String("order_id", id),
		zap.String("from", string(o.Status)),
		zap.String("to", string(req.Status)))

	o.Status = req.Status
	o.UpdatedAt = now
	return o, nil
}

func (s *service) PurchaseProduct(ctx context.Context, vendorID, productID string, req PurchaseRequest) (*Purchase, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}

	var receipt *Purchase
	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Store) error {
		products := catalog.NewDocumentRepository(tx)
		p, err := products.GetByID(ctx, productID)
		if err != nil {
			return err
		}

		minimum := max(p.MinOrder, 1)
		if req.Quantity < minimum {
			return apperr.Validation("minimum order for %s is %d units", p.Name, minimum)
		}
		if req.Quantity > p.Quantity {
			return apperr.Conflict(insufficientStock(p), nil)
		}

		now := s.now().UTC()
		// guard on the observed stock so concurrent buyers cannot oversell
		err = products.Update(ctx, productID,
			map[string]any{"quantity": p.Quantity - req.Quantity, "updatedAt": now},
			docstore.Eq("quantity", p.Quantity))
		if err != nil {
			return err
		}

		receipt = &Purchase{
			ID:           uuid.NewString(),
			ProductID:    p.ID,
			ProductName:  p.Name,
			Quantity:     req.Quantity,
			Amount:       Amount(p.Price, req.Quantity),
			Status:       "success",
			WholesalerID: p.WholesalerID,
			VendorID:     vendorID,
			CreatedAt:    now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.products.InvalidateProducts(ctx)
	s.log.Info("Product purchased",
		zap.String("product_id", productID),
		zap.String("vendor_id", vendorID),
		zap.Int("quantity", req.Quantity),
		zap.Float64("amount", receipt.Amount))
	return receipt, nil
}

func insufficientStock(p *catalog.Product) string {
	if p.Quantity == 0 {
		return p.Name + " is out of stock"
	}
	return fmt.Sprintf("only %d units of %s left in stock", p.Quantity, p.Name)
}
