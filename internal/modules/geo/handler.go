package geo

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Resolver looks up a pincode.
type Resolver interface {
	Lookup(ctx context.Context, pincode string) (*Place, error)
}

type Handler struct{ resolver Resolver }

func NewHandler(resolver Resolver) *Handler { return &Handler{resolver: resolver} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/geo/pincode/{pincode}", h.lookup) // GET /api/v1/geo/pincode/{pincode}
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	place, err := h.resolver.Lookup(r.Context(), chi.URLParam(r, "pincode"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, place)
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
