package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/auth"
	"golang.org/x/crypto/bcrypt"
)

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}

	_, err := s.repo.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, apperr.Conflict("email already registered", nil)
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         req.Role,
		PhotoURL:     req.PhotoURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) UpdateLocation(ctx context.Context, id string, req LocationRequest) (*User, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	loc := &Location{
		City:      strings.TrimSpace(req.City),
		State:     strings.TrimSpace(req.State),
		Pincode:   req.Pincode,
		Address:   strings.TrimSpace(req.Address),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		IsManual:  req.IsManual,
	}
	if req.IsManual {
		loc.UpdatedAt = &now
	} else {
		loc.DetectedAt = &now
	}

	if err := s.repo.UpdateLocation(ctx, id, loc, now); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

// DisplayProfile returns the name and photo shown next to a user's listings.
func (s *service) DisplayProfile(ctx context.Context, id string) (string, string, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return u.Name, u.PhotoURL, nil
}

// LookupAccount lets the auth service check credentials.
func (s *service) LookupAccount(ctx context.Context, email string) (*auth.Account, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &auth.Account{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, PasswordHash: u.PasswordHash}, nil
}
