package catalog

import (
	"context"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, wholesalerID string, req ProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, filter ListFilter) ([]Product, error)
	UpdateProduct(ctx context.Context, actorID, id string, req ProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, actorID, id string) error
	// InvalidateProducts drops cached listings after a write made outside this service.
	InvalidateProducts(ctx context.Context)
}

// OwnerDirectory resolves the display name and photo of a wholesaler.
type OwnerDirectory interface {
	DisplayProfile(ctx context.Context, userID string) (name, photoURL string, err error)
}
