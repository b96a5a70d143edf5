package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/docstore"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() Service {
	return NewService(NewDocumentRepository(docstore.NewMemoryStore()))
}

func register(t *testing.T, svc Service, email, role string) *User {
	t.Helper()
	u, err := svc.RegisterUser(context.Background(), RegisterRequest{
		Name:     "Meena Traders",
		Email:    email,
		Password: "password1",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestRegisterUser(t *testing.T) {
	svc := newTestService()
	u := register(t, svc, " Meena@Example.com", auth.RoleWholesaler)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "meena@example.com", u.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password1")))

	stored, err := svc.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, stored.PasswordHash)
}

func TestRegisterUserRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService()
	register(t, svc, "meena@example.com", auth.RoleVendor)

	_, err := svc.RegisterUser(context.Background(), RegisterRequest{
		Name: "Other", Email: "MEENA@example.com", Password: "password2", Role: auth.RoleVendor,
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterUserValidates(t *testing.T) {
	_, err := newTestService().RegisterUser(context.Background(), RegisterRequest{
		Name: "X", Email: "x@example.com", Password: "password1", Role: "admin",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateLocation(t *testing.T) {
	svc := newTestService()
	u := register(t, svc, "v@example.com", auth.RoleVendor)

	lat, lng := 18.52, 73.85
	updated, err := svc.UpdateLocation(context.Background(), u.ID, LocationRequest{
		City: "Pune", State: "Maharashtra", Pincode: "411001", Latitude: &lat, Longitude: &lng,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Pune", updated.Location.City)
	assert.Equal(t, lat, *updated.Location.Latitude)
	assert.NotNil(t, updated.Location.DetectedAt)
	assert.Nil(t, updated.Location.UpdatedAt)

	_, err = svc.UpdateLocation(context.Background(), u.ID, LocationRequest{City: "Pune", Pincode: "4110"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateLocation(context.Background(), "missing", LocationRequest{City: "Pune", IsManual: true})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLookupAccount(t *testing.T) {
	svc := newTestService()
	u := register(t, svc, "w@example.com", auth.RoleWholesaler)

	account, err := svc.LookupAccount(context.Background(), "w@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, account.ID)
	assert.Equal(t, auth.RoleWholesaler, account.Role)

	_, err = svc.LookupAccount(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestHandlerMeRequiresIdentity(t *testing.T) {
	svc := newTestService()
	u := register(t, svc, "v@example.com", auth.RoleVendor)

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: u.ID, Role: auth.RoleVendor}))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"v@example.com"`)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
}

func TestHandlerRegister(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(newTestService()).RegisterRoutes(r)

	body := `{"name":"Asha","email":"asha@example.com","password":"secret12","role":"vendor"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/register", strings.NewReader(body)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/register", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

