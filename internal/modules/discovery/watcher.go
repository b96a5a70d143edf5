// Package discovery polls bid requests and orders and announces what changed
// since the previous poll.
package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/metrics"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/bid"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/order"
	"go.uber.org/zap"
)

// DefaultInterval matches how often clients re-fetch their lists.
const DefaultInterval = 30 * time.Second

// BidSource lists every bid request.
type BidSource interface {
	ListAll(ctx context.Context) ([]bid.BidRequest, error)
}

// OrderSource lists every order.
type OrderSource interface {
	ListAll(ctx context.Context) ([]order.Order, error)
}

// Watcher diffs successive snapshots of bids and orders. It is not safe for
// concurrent use; Run owns it.
type Watcher struct {
	bids     BidSource
	orders   OrderSource
	pub      Publisher
	interval time.Duration
	metrics  *metrics.AppMetrics
	log      *zap.Logger
	now      func() time.Time

	primed    bool
	bidSeen   map[string]bid.Status
	orderSeen map[string]order.Status
}

func NewWatcher(bids BidSource, orders OrderSource, pub Publisher, interval time.Duration, m *metrics.AppMetrics, log *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		bids:      bids,
		orders:    orders,
		pub:       pub,
		interval:  interval,
		metrics:   m,
		log:       log,
		now:       time.Now,
		bidSeen:   map[string]bid.Status{},
		orderSeen: map[string]order.Status{},
	}
}

// Run polls until ctx is done. A failed poll is logged and retried on the
// next tick.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("Discovery watcher started", zap.Duration("interval", w.interval))
	for {
		if _, err := w.Poll(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.log.Warn("Discovery poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			w.log.Info("Discovery watcher stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll takes one snapshot and publishes the differences from the last one.
// The first successful poll only records the baseline.
func (w *Watcher) Poll(ctx context.Context) ([]Event, error) {
	bids, err := w.bids.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := w.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := w.now().UTC()
	var events []Event

	bidSeen := make(map[string]bid.Status, len(bids))
	for i := range bids {
		b := &bids[i]
		bidSeen[b.ID] = b.Status
		prev, known := w.bidSeen[b.ID]
		switch {
		case !known:
			events = append(events, Event{Kind: KindBidPosted, ID: b.ID, Status: string(b.Status), ObservedAt: now, Bid: b})
		case prev != b.Status:
			events = append(events, Event{Kind: KindBidStatusChanged, ID: b.ID, Status: string(b.Status), PreviousStatus: string(prev), ObservedAt: now, Bid: b})
		}
	}

	orderSeen := make(map[string]order.Status, len(orders))
	for i := range orders {
		o := &orders[i]
		orderSeen[o.ID] = o.Status
		if prev, known := w.orderSeen[o.ID]; known && prev != o.Status {
			events = append(events, Event{Kind: KindOrderStatusChanged, ID: o.ID, Status: string(o.Status), PreviousStatus: string(prev), ObservedAt: now, Order: o})
		}
	}

	w.bidSeen, w.orderSeen = bidSeen, orderSeen
	if !w.primed {
		w.primed = true
		return nil, nil
	}

	for _, e := range events {
		if err := w.pub.Publish(ctx, e); err != nil {
			w.log.Warn("Failed to publish discovery event", zap.String("kind", e.Kind), zap.String("id", e.ID), zap.Error(err))
			continue
		}
		w.metrics.RecordDiscoveryEvent(ctx, e.Kind)
	}
	return events, nil
}
