package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/docstore"
	"github.com/freshfarm/vendorgpt-backend/internal/metrics"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOwners map[string][2]string

func (f fakeOwners) DisplayProfile(ctx context.Context, id string) (string, string, error) {
	p, ok := f[id]
	if !ok {
		return "", "", apperr.NotFound("user %s not found", id)
	}
	return p[0], p[1], nil
}

func onionRequest() ProductRequest {
	return ProductRequest{
		Name:        "Red Onions",
		Description: "Nashik onions, 50kg sacks",
		Address:     "APMC Market, Gultekdi",
		City:        "Pune",
		MobileNo:    "9876543210",
		Price:       28,
		MinOrder:    5,
		Quantity:    200,
	}
}

func newTestService(owners fakeOwners, cache Cache) (Service, docstore.Store) {
	store := docstore.NewMemoryStore()
	return NewService(NewDocumentRepository(store), owners, cache, metrics.Noop(), zap.NewNop()), store
}

func TestCreateProductStampsOwner(t *testing.T) {
	svc, _ := newTestService(fakeOwners{"w1": {"Sharma Wholesale", "https://img/sharma.png"}}, NopCache{})

	p, err := svc.CreateProduct(context.Background(), "w1", onionRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "w1", p.WholesalerID)
	assert.Equal(t, "Sharma Wholesale", p.WholesalerName)
	assert.Equal(t, "+91", p.CountryCode)
}

func TestCreateProductValidates(t *testing.T) {
	svc, _ := newTestService(fakeOwners{"w1": {"Sharma", ""}}, NopCache{})

	req := onionRequest()
	req.Price = 0
	req.MinOrder = 0
	_, err := svc.CreateProduct(context.Background(), "w1", req)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestReadTimeJoin(t *testing.T) {
	owners := fakeOwners{"w1": {"Sharma Wholesale", ""}}
	svc, store := newTestService(owners, NopCache{})
	p, err := svc.CreateProduct(context.Background(), "w1", onionRequest())
	require.NoError(t, err)

	owners["w1"] = [2]string{"Sharma & Sons", "https://img/new.png"}
	got, err := svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sharma & Sons", got.WholesalerName)

	// stored copy survives when the owner is gone
	delete(owners, "w1")
	got, err = svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sharma Wholesale", got.WholesalerName)

	var raw Product
	require.NoError(t, store.Get(context.Background(), docstore.Products, p.ID, &raw))
	assert.Equal(t, "Sharma Wholesale", raw.WholesalerName)
}

func TestListProductsFilters(t *testing.T) {
	owners := fakeOwners{"w1": {"Sharma Wholesale", ""}, "w2": {"Green Farms", ""}}
	svc, _ := newTestService(owners, NopCache{})
	ctx := context.Background()

	onion := onionRequest()
	_, err := svc.CreateProduct(ctx, "w1", onion)
	require.NoError(t, err)

	tomato := onionRequest()
	tomato.Name, tomato.Description, tomato.City, tomato.Address, tomato.Price = "Tomatoes", "Hybrid", "Nashik", "Market Yard, Pune Road", 18
	_, err = svc.CreateProduct(ctx, "w2", tomato)
	require.NoError(t, err)

	names := func(ps []Product) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}
	maxPrice := 20.0

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"all", ListFilter{}, []string{"Red Onions", "Tomatoes"}},
		{"city matches address", ListFilter{City: "pune"}, []string{"Red Onions", "Tomatoes"}},
		{"city", ListFilter{City: "NASHIK"}, []string{"Tomatoes"}},
		{"price", ListFilter{MaxPrice: &maxPrice}, []string{"Tomatoes"}},
		{"wholesaler", ListFilter{WholesalerID: "w1"}, []string{"Red Onions"}},
		{"search description", ListFilter{Search: "sacks"}, []string{"Red Onions"}},
		{"search wholesaler", ListFilter{Search: "green"}, []string{"Tomatoes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListProducts(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestOnlyOwnerMayChange(t *testing.T) {
	svc, _ := newTestService(fakeOwners{"w1": {"Sharma", ""}, "w2": {"Other", ""}}, NopCache{})
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, "w1", onionRequest())
	require.NoError(t, err)

	req := onionRequest()
	req.Price = 30
	_, err = svc.UpdateProduct(ctx, "w2", p.ID, req)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, "w2", p.ID), apperr.ErrForbidden)

	updated, err := svc.UpdateProduct(ctx, "w1", p.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 30.0, updated.Price)

	require.NoError(t, svc.DeleteProduct(ctx, "w1", p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRedisCacheServesAndInvalidates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCache(client, zap.NewNop())
	svc, store := newTestService(fakeOwners{"w1": {"Sharma", ""}}, cache)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, "w1", onionRequest())
	require.NoError(t, err)

	first, err := svc.ListProducts(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// a write behind the service's back is invisible until invalidation
	sneaky := &Product{Name: "Garlic", WholesalerID: "w1", Price: 90, MinOrder: 1, Quantity: 3}
	_, err = store.Insert(ctx, docstore.Products, sneaky)
	require.NoError(t, err)

	cached, err := svc.ListProducts(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	svc.InvalidateProducts(ctx)
	fresh, err := svc.ListProducts(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

// sellOutDuringList empties a listing and invalidates the cache while the
// service is still reading the product list, like a purchase committing mid-load.
type sellOutDuringList struct {
	Repository
	store docstore.Store
	cache Cache
	id    string
	once  bool
}

func (r *sellOutDuringList) List(ctx context.Context) ([]Product, error) {
	products, err := r.Repository.List(ctx)
	if err != nil || r.once {
		return products, err
	}
	r.once = true
	if err := r.store.Update(ctx, docstore.Products, r.id, map[string]any{"quantity": 0}); err != nil {
		return nil, err
	}
	r.cache.Invalidate(ctx)
	return products, nil
}

func TestRedisCacheDropsListLoadedAcrossInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCache(client, zap.NewNop())
	store := docstore.NewMemoryStore()
	ctx := context.Background()

	seed := NewService(NewDocumentRepository(store), fakeOwners{"w1": {"Sharma", ""}}, NopCache{}, metrics.Noop(), zap.NewNop())
	p, err := seed.CreateProduct(ctx, "w1", onionRequest())
	require.NoError(t, err)

	repo := &sellOutDuringList{Repository: NewDocumentRepository(store), store: store, cache: cache, id: p.ID}
	svc := NewService(repo, fakeOwners{"w1": {"Sharma", ""}}, cache, metrics.Noop(), zap.NewNop())

	stale, err := svc.ListProducts(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, 200, stale[0].Quantity)

	fresh, err := svc.ListProducts(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, 0, fresh[0].Quantity)
}

func TestRedisCacheDegradesWhenDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCache(client, zap.NewNop())
	mr.Close()

	_, version, ok := cache.GetAll(context.Background())
	assert.False(t, ok)
	assert.Zero(t, version)
	assert.NotPanics(t, func() {
		cache.SetAll(context.Background(), 1, []Product{{ID: "p1"}})
		cache.Invalidate(context.Background())
	})
}

func TestHandlerCreateRequiresWholesaler(t *testing.T) {
	svc, _ := newTestService(fakeOwners{"w1": {"Sharma", ""}}, NopCache{})
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)

	body := `{"name":"Okra","address":"Market Yard","city":"Pune","mobileNo":"99999","price":40,"minOrder":1,"quantity":10}`
	post := func(role string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
		req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "w1", Role: role}))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, post(auth.RoleVendor))
	assert.Equal(t, http.StatusCreated, post(auth.RoleWholesaler))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?maxPrice=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
