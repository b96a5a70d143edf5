package bid

import "time"

// Status is the state of a bid request.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusCompleted   Status = "completed"
	StatusOrderPlaced Status = "order_placed"
)

// Urgency is a delivery hint attached by the vendor. Nothing schedules on it.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyToday     Urgency = "today"
	UrgencyTomorrow  Urgency = "tomorrow"
	UrgencyThisWeek  Urgency = "this_week"
)

// Bid requests only ever leave pending.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusAccepted, StatusRejected, StatusOrderPlaced},
}

// CanTransition reports whether to is a legal successor of from.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// BidRequest is a vendor's ask for a product nobody currently lists.
type BidRequest struct {
	ID          string    `json:"id" bson:"_id"`
	VendorID    string    `json:"vendorId" bson:"vendorId"`
	VendorName  string    `json:"vendorName" bson:"vendorName"`
	VendorEmail string    `json:"vendorEmail" bson:"vendorEmail"`
	ProductName string    `json:"productName" bson:"productName"`
	Description string    `json:"description" bson:"description"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	BidPrice    float64   `json:"bidPrice" bson:"bidPrice"`
	Urgency     Urgency   `json:"urgency" bson:"urgency"`
	Location    string    `json:"location" bson:"location"`
	Status      Status    `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`

	// set when a wholesaler takes the bid
	AcceptedBy        string     `json:"acceptedBy,omitempty" bson:"acceptedBy,omitempty"`
	AcceptedAt        *time.Time `json:"acceptedAt,omitempty" bson:"acceptedAt,omitempty"`
	WholesalerName    string     `json:"wholesalerName,omitempty" bson:"wholesalerName,omitempty"`
	WholesalerContact string     `json:"wholesalerContact,omitempty" bson:"wholesalerContact,omitempty"`
	OrderID           string     `json:"orderId,omitempty" bson:"orderId,omitempty"`
	OrderPlacedAt     *time.Time `json:"orderPlacedAt,omitempty" bson:"orderPlacedAt,omitempty"`

	RejectedAt *time.Time `json:"rejectedAt,omitempty" bson:"rejectedAt,omitempty"`
}

func (b *BidRequest) DocumentID() string      { return b.ID }
func (b *BidRequest) SetDocumentID(id string) { b.ID = id }

// Vendor identifies who is asking.
type Vendor struct {
	ID    string
	Name  string
	Email string
}

// Wholesaler identifies who is taking a bid.
type Wholesaler struct {
	ID      string
	Name    string
	Contact string
}

// CreateRequest is the payload for posting a bid request.
type CreateRequest struct {
	ProductName string  `json:"productName" validate:"required"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity" validate:"gte=1"`
	BidPrice    float64 `json:"bidPrice" validate:"gte=0,cents"`
	Urgency     Urgency `json:"urgency" validate:"required,oneof=immediate today tomorrow this_week"`
	Location    string  `json:"location" validate:"required"`
}
