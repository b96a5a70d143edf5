package catalog

import (
	"time"
)

// Product is a wholesaler's listing.
// WholesalerName and WholesalerPhoto are copies taken at write time and
// refreshed from the owner's profile on read; they are never authoritative.
type Product struct {
	ID              string    `json:"id" bson:"_id"`
	Name            string    `json:"name" bson:"name"`
	Description     string    `json:"description" bson:"description"`
	Address         string    `json:"address" bson:"address"`
	City            string    `json:"city" bson:"city"`
	MobileNo        string    `json:"mobileNo" bson:"mobileNo"`
	CountryCode     string    `json:"countryCode" bson:"countryCode"`
	Price           float64   `json:"price" bson:"price"`
	MinOrder        int       `json:"minOrder" bson:"minOrder"`
	Quantity        int       `json:"quantity" bson:"quantity"`
	ImageURL        string    `json:"imageUrl" bson:"imageUrl"`
	WholesalerID    string    `json:"wholesalerId" bson:"wholesalerId"`
	WholesalerName  string    `json:"wholesalerName" bson:"wholesalerName"`
	WholesalerPhoto string    `json:"wholesalerPhoto" bson:"wholesalerPhoto"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (p *Product) DocumentID() string      { return p.ID }
func (p *Product) SetDocumentID(id string) { p.ID = id }

// ProductRequest holds the editable fields of a listing.
type ProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Address     string  `json:"address" validate:"required"`
	City        string  `json:"city" validate:"required"`
	MobileNo    string  `json:"mobileNo" validate:"required"`
	CountryCode string  `json:"countryCode"`
	Price       float64 `json:"price" validate:"gt=0,cents"`
	MinOrder    int     `json:"minOrder" validate:"gte=1"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	ImageURL    string  `json:"imageUrl"`
}

// ListFilter narrows a product listing. Zero values do not filter.
type ListFilter struct {
	WholesalerID string
	City         string
	MinPrice     *float64
	MaxPrice     *float64
	Search       string
}
