package auth

import (
	"encoding/json"
	"net/http"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes the login endpoint.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/auth/login", h.login) // POST /api/v1/auth/login
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := apperr.Validate(req); err != nil {
		fail(w, r, err)
		return
	}

	token, id, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, loginResponse{Token: token, User: id})
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), zap.NewNop()).Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	respond(w, status, map[string]string{"error": apperr.PublicMessage(err)})
}
