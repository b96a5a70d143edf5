package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// DeliveryWindow is the promised time between order creation and delivery.
const DeliveryWindow = 4 * time.Hour

// validTransitions defines the allowed status state machine.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
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

// Order is created when a wholesaler accepts a bid request. BidRequestID
// points back at that request, whose orderId points here.
type Order struct {
	ID                string    `json:"id" bson:"_id"`
	BidRequestID      string    `json:"bidRequestId" bson:"bidRequestId"`
	ProductName       string    `json:"productName" bson:"productName"`
	Quantity          int       `json:"quantity" bson:"quantity"`
	PricePerUnit      float64   `json:"pricePerUnit" bson:"pricePerUnit"`
	TotalAmount       float64   `json:"totalAmount" bson:"totalAmount"`
	VendorID          string    `json:"vendorId" bson:"vendorId"`
	VendorName        string    `json:"vendorName" bson:"vendorName"`
	WholesalerID      string    `json:"wholesalerId" bson:"wholesalerId"`
	WholesalerName    string    `json:"wholesalerName" bson:"wholesalerName"`
	Status            Status    `json:"status" bson:"status"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
	DeliveryAddress   string    `json:"deliveryAddress" bson:"deliveryAddress"`
	EstimatedDelivery time.Time `json:"estimatedDelivery" bson:"estimatedDelivery"`
}

func (o *Order) DocumentID() string      { return o.ID }
func (o *Order) SetDocumentID(id string) { o.ID = id }

// BidTerms are the parts of an accepted bid request an order is built from.
type BidTerms struct {
	BidRequestID string
	ProductName  string
	Quantity     int
	BidPrice     float64
	VendorID     string
	VendorName   string
	Location     string
}

// NewFromBid builds the confirmed order for an accepted bid. The id is left
// for the store to assign.
func NewFromBid(terms BidTerms, wholesalerID, wholesalerName string, now time.Time) *Order {
	now = now.UTC()
	return &Order{
		BidRequestID:      terms.BidRequestID,
		ProductName:       terms.ProductName,
		Quantity:          terms.Quantity,
		PricePerUnit:      terms.BidPrice,
		TotalAmount:       Amount(terms.BidPrice, terms.Quantity),
		VendorID:          terms.VendorID,
		VendorName:        terms.VendorName,
		WholesalerID:      wholesalerID,
		WholesalerName:    wholesalerName,
		Status:            StatusConfirmed,
		CreatedAt:         now,
		UpdatedAt:         now,
		DeliveryAddress:   terms.Location,
		EstimatedDelivery: now.Add(DeliveryWindow),
	}
}

// Amount multiplies a unit price by a quantity in decimal and rounds to paise.
func Amount(unitPrice float64, quantity int) float64 {
	total, _ := decimal.NewFromFloat(unitPrice).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		Float64()
	return total
}

// Purchase is the receipt for a direct buy from a listing. It is not stored
// in the orders collection.
type Purchase struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	ProductName  string    `json:"productName"`
	Quantity     int       `json:"quantity"`
	Amount       float64   `json:"amount"`
	Status       string    `json:"status"`
	WholesalerID string    `json:"wholesalerId"`
	VendorID     string    `json:"vendorId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PurchaseRequest is the payload for buying from a listing.
type PurchaseRequest struct {
	Quantity int `json:"quantity" validate:"gte=1"`
}

// UpdateStatusRequest is the payload for advancing an order's status.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=pending confirmed shipped delivered cancelled"`
}
