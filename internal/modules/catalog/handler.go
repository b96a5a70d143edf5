package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/logger"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	wholesaler := auth.RequireRole(auth.RoleWholesaler)

	r.Get("/api/v1/products", h.listProducts)                           // GET    /api/v1/products?city=&minPrice=&maxPrice=&search=&wholesalerId=
	r.Get("/api/v1/products/{id}", h.getProduct)                        // GET    /api/v1/products/{id}
	r.With(wholesaler).Post("/api/v1/products", h.createProduct)        // POST   /api/v1/products
	r.With(wholesaler).Put("/api/v1/products/{id}", h.updateProduct)    // PUT    /api/v1/products/{id}
	r.With(wholesaler).Delete("/api/v1/products/{id}", h.deleteProduct) // DELETE /api/v1/products/{id}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		WholesalerID: q.Get("wholesalerId"),
		City:         q.Get("city"),
		Search:       q.Get("search"),
	}
	var err error
	if filter.MinPrice, err = parsePrice(q.Get("minPrice")); err != nil {
		fail(w, r, err)
		return
	}
	if filter.MaxPrice, err = parsePrice(q.Get("maxPrice")); err != nil {
		fail(w, r, err)
		return
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.CreateProduct(r.Context(), id.UserID, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	if err := h.service.DeleteProduct(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parsePrice(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, apperr.Validation("invalid price filter %q", raw)
	}
	return &v, nil
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), zap.NewNop()).Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	respond(w, status, map[string]string{"error": apperr.PublicMessage(err)})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
