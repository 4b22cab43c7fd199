package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ameliazsabrina/sericlo-app/internal/service"
	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
	"github.com/ameliazsabrina/sericlo-app/pkg/httputil"
	"github.com/ameliazsabrina/sericlo-app/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthenticated("authentication required"), h.logger)
		return
	}

	items, err := h.service.ListItems(r.Context(), ident.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, items)
}

// AddItem handles POST /api/v1/cart/add
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthenticated("authentication required"), h.logger)
		return
	}

	var req service.AddItemInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	line, err := h.service.AddItem(r.Context(), ident.UserID, &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Success: true, Data: line})
}

// RemoveItem handles DELETE /api/v1/cart/{lineID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthenticated("authentication required"), h.logger)
		return
	}

	lineID := chi.URLParam(r, "lineID")
	if err := h.service.RemoveItem(r.Context(), ident.UserID, lineID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "item removed")
}
