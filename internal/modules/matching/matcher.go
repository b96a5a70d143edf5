// Package matching finds listed products that satisfy an extracted purchase intent.
package matching

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/freshfarm/vendorgpt-backend/internal/modules/catalog"
)

const (
	// MaxResults caps the products attached to a chat reply.
	MaxResults = 5
	// BudgetSlack lets prices run up to 20% over the stated budget.
	BudgetSlack = 1.2
)

var digits = regexp.MustCompile(`\d+`)

// ProductSource lists the full catalog.
type ProductSource interface {
	ListProducts(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error)
}

// LocationFilter decides whether a product serves the buyer's location hint.
// A nil filter accepts every product.
type LocationFilter func(p catalog.Product, locationHint string) bool

// Matcher ranks catalog products against a product type and budget.
type Matcher struct {
	products ProductSource
	location LocationFilter
}

func NewMatcher(products ProductSource) *Matcher {
	return &Matcher{products: products}
}

// WithLocationFilter returns a copy of m that also applies f.
func (m *Matcher) WithLocationFilter(f LocationFilter) *Matcher {
	return &Matcher{products: m.products, location: f}
}

// Match works in three stages:
//  1. Fetch every product (there is no text index to push the search down to)
//  2. Keep products whose name or description contains productType, that are in
//     stock, and whose price is within BudgetSlack of the budget
//  3. Order by ascending price, keeping store order on ties, and cap at MaxResults
//
// An empty budget, or one without any digits, does not filter on price. An empty
// result is not an error.
func (m *Matcher) Match(ctx context.Context, productType, budget, locationHint string) ([]catalog.Product, error) {
	needle := strings.ToLower(strings.TrimSpace(productType))
	if needle == "" {
		return nil, nil
	}

	// Stage 1
	all, err := m.products.ListProducts(ctx, catalog.ListFilter{})
	if err != nil {
		return nil, err
	}

	// Stage 2
	limit, hasBudget := priceLimit(budget)
	var matched []catalog.Product
	for _, p := range all {
		if !strings.Contains(strings.ToLower(p.Name), needle) && !strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		if p.Quantity <= 0 {
			continue
		}
		if hasBudget && p.Price > limit {
			continue
		}
		if m.location != nil && !m.location(p, locationHint) {
			continue
		}
		matched = append(matched, p)
	}

	// Stage 3
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	if len(matched) > MaxResults {
		matched = matched[:MaxResults]
	}
	return matched, nil
}

// priceLimit reads the first number in budget: "₹300" -> 360.
func priceLimit(budget string) (float64, bool) {
	m := digits.FindString(budget)
	if m == "" {
		return 0, false
	}
	b, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return b * BudgetSlack, true
}

// CityFilter is a LocationFilter that keeps products whose city or address
// mentions the hint. An empty hint accepts everything.
func CityFilter(p catalog.Product, locationHint string) bool {
	hint := strings.ToLower(strings.TrimSpace(locationHint))
	if hint == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.City), hint) || strings.Contains(strings.ToLower(p.Address), hint)
}
