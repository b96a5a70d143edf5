package discovery

import (
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/modules/bid"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/order"
)

// Event kinds.
const (
	KindBidPosted          = "bid.posted"
	KindBidStatusChanged   = "bid.status_changed"
	KindOrderStatusChanged = "order.status_changed"
)

// Event describes one change observed between two polls.
type Event struct {
	Kind           string          `json:"kind"`
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previousStatus,omitempty"`
	ObservedAt     time.Time       `json:"observedAt"`
	Bid            *bid.BidRequest `json:"bid,omitempty"`
	Order          *order.Order    `json:"order,omitempty"`
}
