package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/auth"
	"github.com/go-chi/chi/v5"
)

// Processor answers chat messages. *Orchestrator implements it.
type Processor interface {
	ProcessMessage(ctx context.Context, text, location, userID, userName, userEmail string) Message
}

// Handler exposes the chat endpoint. Identity is optional; anonymous callers
// and wholesalers can search but cannot create bid requests.
type Handler struct {
	chat    Processor
	limiter *RateLimiter
}

func NewHandler(chat Processor, limiter *RateLimiter) *Handler {
	return &Handler{chat: chat, limiter: limiter}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(h.limiter.Middleware).Post("/api/v1/chat/messages", h.sendMessage) // POST /api/v1/chat/messages
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := apperr.Validate(req); err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.PublicMessage(err)})
		return
	}

	// only vendors post bids, matching POST /api/v1/bids; anyone else is
	// treated like an anonymous caller and asked for details instead
	var userID, name, email string
	if id, ok := auth.IdentityFrom(r.Context()); ok && id.Role == auth.RoleVendor {
		userID, name, email = id.UserID, id.Name, id.Email
	}
	respond(w, http.StatusOK, h.chat.ProcessMessage(r.Context(), req.Message, req.Location, userID, name, email))
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
