package bid

import (
	"encoding/json"
	"net/http"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/logger"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/auth"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/order"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes bid request HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	vendor := auth.RequireRole(auth.RoleVendor)
	wholesaler := auth.RequireRole(auth.RoleWholesaler)

	r.Route("/api/v1/bids", func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.With(vendor).Post("/", h.createBid)
		r.Get("/mine", h.listMine)
		r.With(wholesaler).Get("/pending", h.listPending)
		r.Get("/{id}", h.getBid)
		r.With(wholesaler).Post("/{id}/accept", h.acceptBid)
		r.With(wholesaler).Post("/{id}/reject", h.rejectBid)
	})
}

// AcceptResponse is returned when a bid turns into an order.
type AcceptResponse struct {
	Bid   *BidRequest  `json:"bid"`
	Order *order.Order `json:"order"`
}

func (h *Handler) createBid(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	b, err := h.service.CreateBid(r.Context(), Vendor{ID: id.UserID, Name: id.Name, Email: id.Email}, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, b)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	bids, err := h.service.ListVendorBids(r.Context(), id.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, nonNil(bids))
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	bids, err := h.service.ListPendingBids(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, nonNil(bids))
}

// getBid shows a bid to its vendor and to wholesalers, who see the same bids in
// the pending feed. Other vendors get a not-found.
func (h *Handler) getBid(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	b, err := h.service.GetBid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if b.VendorID != id.UserID && id.Role != auth.RoleWholesaler {
		fail(w, r, apperr.NotFound("bid request %s not found", b.ID))
		return
	}
	respond(w, http.StatusOK, b)
}

func (h *Handler) acceptBid(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	b, o, err := h.service.AcceptAndCreateOrder(r.Context(), chi.URLParam(r, "id"),
		Wholesaler{ID: id.UserID, Name: id.Name, Contact: id.Email})
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, AcceptResponse{Bid: b, Order: o})
}

func (h *Handler) rejectBid(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.RejectBid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, b)
}

func nonNil(bids []BidRequest) []BidRequest {
	if bids == nil {
		return []BidRequest{}
	}
	return bids
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
