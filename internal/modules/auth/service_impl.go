package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

// Claims carries the identity inside the token.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

type service struct {
	accounts AccountLookup
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates a new auth service signing HS256 tokens with secret.
func NewService(accounts AccountLookup, secret string, ttl time.Duration) Service {
	return &service{accounts: accounts, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *service) Login(ctx context.Context, email, password string) (string, *Identity, error) {
	account, err := s.accounts.LookupAccount(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil, apperr.Unauthorized("invalid credentials")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.Unauthorized("invalid credentials")
	}

	id := &Identity{UserID: account.ID, Name: account.Name, Email: account.Email, Role: account.Role}
	token, err := s.issue(id)
	if err != nil {
		return "", nil, err
	}
	return token, id, nil
}

func (s *service) issue(id *Identity) (string, error) {
	now := s.now()
	claims := &Claims{
		Name:  id.Name,
		Email: id.Email,
		Role:  id.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   id.UserID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *service) ParseToken(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("token is invalid")
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthorized("token has no subject")
	}
	return &Identity{UserID: claims.Subject, Name: claims.Name, Email: claims.Email, Role: claims.Role}, nil
}
