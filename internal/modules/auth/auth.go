package auth

import "context"

// Roles a marketplace account can hold.
const (
	RoleVendor     = "vendor"
	RoleWholesaler = "wholesaler"
)

// Account is what Login needs to know about a user.
type Account struct {
	ID           string
	Name         string
	Email        string
	Role         string
	PasswordHash string
}

// AccountLookup resolves accounts by email.
type AccountLookup interface {
	LookupAccount(ctx context.Context, email string) (*Account, error)
}

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *Identity, error)
	ParseToken(token string) (*Identity, error)
}
