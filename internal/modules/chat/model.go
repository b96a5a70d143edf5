package chat

import (
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/modules/catalog"
)

// Message is one bot turn. It is returned to the caller and never stored.
type Message struct {
	ID        string            `json:"id"`
	Message   string            `json:"message"`
	IsBot     bool              `json:"isBot"`
	Timestamp time.Time         `json:"timestamp"`
	Products  []catalog.Product `json:"products,omitempty"`
}

// SendRequest is the payload of an inbound chat message. Location is a free
// text hint such as the vendor's city.
type SendRequest struct {
	Message  string `json:"message" validate:"required"`
	Location string `json:"location"`
}
