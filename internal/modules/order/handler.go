package order

import (
	"encoding/json"
	"net/http"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/logger"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes order HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/mine", h.listMine)                                                          // GET   /api/v1/orders/mine
		r.Get("/{id}", h.getOrder)                                                          // GET   /api/v1/orders/{id}
		r.With(auth.RequireRole(auth.RoleWholesaler)).Patch("/{id}/status", h.updateStatus) // PATCH /api/v1/orders/{id}/status
	})
	r.With(auth.RequireRole(auth.RoleVendor)).Post("/api/v1/products/{id}/purchase", h.purchase) // POST /api/v1/products/{id}/purchase
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var (
		orders []Order
		err    error
	)
	if id.Role == auth.RoleWholesaler {
		orders, err = h.service.ListWholesalerOrders(r.Context(), id.UserID)
	} else {
		orders, err = h.service.ListVendorOrders(r.Context(), id.UserID)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if o.VendorID != id.UserID && o.WholesalerID != id.UserID {
		fail(w, r, apperr.NotFound("order %s not found", o.ID))
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.AdvanceStatus(r.Context(), id.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.PurchaseProduct(r.Context(), id.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, p)
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
