package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/freshfarm/vendorgpt-backend/internal/modules/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog struct {
	products []catalog.Product
	err      error
}

func (s staticCatalog) ListProducts(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error) {
	return s.products, s.err
}

func product(id, name, desc string, price float64, qty int) catalog.Product {
	return catalog.Product{ID: id, Name: name, Description: desc, Price: price, Quantity: qty, City: "Pune"}
}

func ids(ps []catalog.Product) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestMatchOnionScenario(t *testing.T) {
	m := NewMatcher(staticCatalog{products: []catalog.Product{
		product("p1", "Red Onions", "", 340, 50),
		product("p2", "Potatoes", "goes well with onions", 200, 10),
		product("p3", "White onion", "", 361, 40),
		product("p4", "Onion (small)", "", 100, 0),
		product("p5", "Tomatoes", "", 50, 10),
		product("p6", "ONION premium", "", 360, 5),
	}})

	got, err := m.Match(context.Background(), "onion", "300", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"p2", "p1", "p6"}, ids(got))
	for _, p := range got {
		assert.Greater(t, p.Quantity, 0)
		assert.LessOrEqual(t, p.Price, 360.0)
	}
}

func TestMatchWithoutBudget(t *testing.T) {
	m := NewMatcher(staticCatalog{products: []catalog.Product{
		product("p1", "Garlic", "", 900, 1),
		product("p2", "garlic paste", "", 90, 1),
	}})

	got, err := m.Match(context.Background(), "Garlic", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, ids(got))

	got, err = m.Match(context.Background(), "Garlic", "flexible", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMatchCapsResultsAndKeepsStoreOrderOnTies(t *testing.T) {
	var products []catalog.Product
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		products = append(products, product(id, "Cabbage", "", 20, 3))
	}
	got, err := NewMatcher(staticCatalog{products: products}).Match(context.Background(), "cabbage", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(got))
}

func TestMatchEmpty(t *testing.T) {
	m := NewMatcher(staticCatalog{products: []catalog.Product{product("p1", "Okra", "", 30, 4)}})

	got, err := m.Match(context.Background(), "mango", "100", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = m.Match(context.Background(), "  ", "", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMatchPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("store down")
	_, err := NewMatcher(staticCatalog{err: boom}).Match(context.Background(), "onion", "", "")
	assert.ErrorIs(t, err, boom)
}

func TestLocationFilterIsOptIn(t *testing.T) {
	nashik := product("p2", "Onion", "", 20, 5)
	nashik.City = "Nashik"
	src := staticCatalog{products: []catalog.Product{product("p1", "Onion", "", 25, 5), nashik}}

	got, err := NewMatcher(src).Match(context.Background(), "onion", "", "Pune")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = NewMatcher(src).WithLocationFilter(CityFilter).Match(context.Background(), "onion", "", "pune")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(got))
}
