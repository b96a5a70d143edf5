package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/metrics"
	"go.uber.org/zap"
)

const defaultCountryCode = "+91"

type service struct {
	repo    Repository
	owners  OwnerDirectory
	cache   Cache
	metrics *metrics.AppMetrics
	log     *zap.Logger
	now     func() time.Time
}

// NewService creates the catalog service. cache may be NopCache{}.
func NewService(repo Repository, owners OwnerDirectory, cache Cache, m *metrics.AppMetrics, log *zap.Logger) Service {
	return &service{repo: repo, owners: owners, cache: cache, metrics: m, log: log, now: time.Now}
}

func (s *service) CreateProduct(ctx context.Context, wholesalerID string, req ProductRequest) (*Product, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	name, photo, err := s.owners.DisplayProfile(ctx, wholesalerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &Product{
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		Address:         strings.TrimSpace(req.Address),
		City:            strings.TrimSpace(req.City),
		MobileNo:        strings.TrimSpace(req.MobileNo),
		CountryCode:     countryCode(req.CountryCode),
		Price:           req.Price,
		MinOrder:        req.MinOrder,
		Quantity:        req.Quantity,
		ImageURL:        req.ImageURL,
		WholesalerID:    wholesalerID,
		WholesalerName:  name,
		WholesalerPhoto: photo,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.join(ctx, []*Product{p})
	return p, nil
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter) ([]Product, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Product, 0, len(all))
	for _, p := range all {
		if filter.WholesalerID != "" && p.WholesalerID != filter.WholesalerID {
			continue
		}
		if filter.MinPrice != nil && p.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			continue
		}
		if filter.City != "" && !containsFold(p.City, filter.City) && !containsFold(p.Address, filter.City) {
			continue
		}
		out = append(out, p)
	}

	ptrs := make([]*Product, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	s.join(ctx, ptrs)

	// search also covers the joined wholesaler name
	if filter.Search != "" {
		matched := out[:0]
		for _, p := range out {
			if containsFold(p.Name, filter.Search) || containsFold(p.Description, filter.Search) || containsFold(p.WholesalerName, filter.Search) {
				matched = append(matched, p)
			}
		}
		out = matched
	}
	return out, nil
}

func (s *service) UpdateProduct(ctx context.Context, actorID, id string, req ProductRequest) (*Product, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return nil, err
	}

	set := map[string]any{
		"name":        strings.TrimSpace(req.Name),
		"description": strings.TrimSpace(req.Description),
		"address":     strings.TrimSpace(req.Address),
		"city":        strings.TrimSpace(req.City),
		"mobileNo":    strings.TrimSpace(req.MobileNo),
		"countryCode": countryCode(req.CountryCode),
		"price":       req.Price,
		"minOrder":    req.MinOrder,
		"quantity":    req.Quantity,
		"imageUrl":    req.ImageURL,
		"updatedAt":   s.now().UTC(),
	}
	if err := s.repo.Update(ctx, id, set); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, actorID, id string) error {
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *service) InvalidateProducts(ctx context.Context) {
	s.cache.Invalidate(ctx)
}

func (s *service) owned(ctx context.Context, actorID, id string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.WholesalerID != actorID {
		return nil, apperr.Forbidden("only the owning wholesaler can change this product")
	}
	return p, nil
}

func (s *service) all(ctx context.Context) ([]Product, error) {
	cached, version, ok := s.cache.GetAll(ctx)
	if ok {
		s.metrics.RecordProductCache(ctx, true)
		return cached, nil
	}
	s.metrics.RecordProductCache(ctx, false)

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetAll(ctx, version, products)
	return products, nil
}

// join refreshes the wholesaler name and photo from the owner's profile. The
// stored copy stays when the owner cannot be resolved.
func (s *service) join(ctx context.Context, products []*Product) {
	type profile struct{ name, photo string }
	seen := map[string]*profile{}

	for _, p := range products {
		if p.WholesalerID == "" {
			continue
		}
		prof, ok := seen[p.WholesalerID]
		if !ok {
			name, photo, err := s.owners.DisplayProfile(ctx, p.WholesalerID)
			if err != nil {
				if !errors.Is(err, apperr.ErrNotFound) {
					s.log.Warn("Failed to resolve product owner", zap.String("wholesaler_id", p.WholesalerID), zap.Error(err))
				}
				seen[p.WholesalerID] = nil
				continue
			}
			prof = &profile{name: name, photo: photo}
			seen[p.WholesalerID] = prof
		}
		if prof == nil {
			continue
		}
		if prof.name != "" {
			p.WholesalerName = prof.name
		}
		if prof.photo != "" {
			p.WholesalerPhoto = prof.photo
		}
	}
}

func countryCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return defaultCountryCode
	}
	return code
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}
