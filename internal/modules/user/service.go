package user

import (
	"context"

	"github.com/freshfarm/vendorgpt-backend/internal/modules/auth"
)

// Service defines the interface for user-related business logic.
type Service interface {
	auth.AccountLookup
	RegisterUser(ctx context.Context, req RegisterRequest) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateLocation(ctx context.Context, id string, req LocationRequest) (*User, error)
	DisplayProfile(ctx context.Context, id string) (name, photoURL string, err error)
}

// RegisterRequest holds the data for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=vendor wholesaler"`
	PhotoURL string `json:"photoURL" validate:"omitempty,url"`
}

// LocationRequest updates the stored location. Detected locations carry
// coordinates; manual ones set IsManual.
type LocationRequest struct {
	City      string   `json:"city" validate:"required"`
	State     string   `json:"state"`
	Pincode   string   `json:"pincode" validate:"omitempty,len=6,numeric"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	IsManual  bool     `json:"isManual"`
}
