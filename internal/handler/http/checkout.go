package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ameliazsabrina/sericlo-app/internal/domain"
	"github.com/ameliazsabrina/sericlo-app/internal/gateway"
	"github.com/ameliazsabrina/sericlo-app/internal/service"
	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
	"github.com/ameliazsabrina/sericlo-app/pkg/httputil"
	"github.com/ameliazsabrina/sericlo-app/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout and payment
// reconciliation endpoints.
type CheckoutHandler struct {
	service  *service.CheckoutService
	provider gateway.Provider
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, provider gateway.Provider, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service:  svc,
		provider: provider,
		logger:   logger,
	}
}

// --- Request DTOs ---

// CheckoutRequest is the JSON request body for initiating a checkout. The
// customer name is optional; the email always comes from the session.
type CheckoutRequest struct {
	Name string `json:"name" validate:"omitempty,max=200"`
}

// ConfirmRequest is the client's report of a payment outcome, in the shape
// the gateway's browser widget hands back to the storefront.
type ConfirmRequest struct {
	OrderID       string `json:"orderId" validate:"required"`
	TransactionID string `json:"transactionId" validate:"required"`
	PaymentType   string `json:"paymentType"`
	Status        string `json:"status" validate:"required"`
	Amount        int64  `json:"amount" validate:"gte=0"`
}

// webhookRequest is the gateway's server-to-server notification payload.
type webhookRequest struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
	GrossAmount       string `json:"gross_amount"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
}

// checkoutResponse preserves the wire shape storefront clients rely on:
// the session token and order number at the top level.
type checkoutResponse struct {
	Success     bool   `json:"success"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url,omitempty"`
	OrderID     string `json:"orderId"`
}

// --- Handlers ---

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthenticated("authentication required"), h.logger)
		return
	}

	// The body is optional; an empty or absent body means no customer name.
	var req CheckoutRequest
	if r.ContentLength > 0 {
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
	}

	result, err := h.service.InitiateCheckout(r.Context(), ident.UserID, req.Name, ident.Email)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, checkoutResponse{
		Success:     true,
		Token:       result.Token,
		RedirectURL: result.RedirectURL,
		OrderID:     result.OrderNumber,
	})
}

// Confirm handles POST /api/v1/checkout/confirm
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthenticated("authentication required"), h.logger)
		return
	}

	var req ConfirmRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	status, err := domain.CanonicalStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return
	}

	txn, err := h.service.Confirm(r.Context(), ident.UserID, &domain.ReconcileEvent{
		OrderID:      req.OrderID,
		GatewayTxnID: req.TransactionID,
		PaymentType:  req.PaymentType,
		Status:       status,
		Amount:       req.Amount,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, txn)
}

// Webhook handles POST /api/v1/checkout/webhook. The gateway expects a bare
// 200 "OK" acknowledgment; anything else makes it retry the notification.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.OrderID == "" || req.TransactionStatus == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if !h.provider.ValidSignature(req.OrderID, req.StatusCode, req.GrossAmount, req.SignatureKey) {
		h.logger.WarnContext(r.Context(), "webhook signature rejected",
			slog.String("order_number", req.OrderID),
		)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	status, err := domain.CanonicalStatus(req.TransactionStatus)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	amount, err := parseGrossAmount(req.GrossAmount)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	err = h.service.HandleWebhook(r.Context(), &domain.ReconcileEvent{
		OrderID:      req.OrderID,
		GatewayTxnID: req.TransactionID,
		PaymentType:  req.PaymentType,
		Status:       status,
		Amount:       amount,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(r.Context(), "webhook processing failed",
			slog.String("order_number", req.OrderID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// GetOrder handles GET /api/v1/checkout/{orderNumber}
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthenticated("authentication required"), h.logger)
		return
	}

	orderNumber := chi.URLParam(r, "orderNumber")
	if !domain.IsValidOrderNumber(orderNumber) {
		httputil.WriteError(w, r, apperrors.InvalidInput("malformed order number"), h.logger)
		return
	}

	order, txn, err := h.service.GetOrder(r.Context(), ident.UserID, orderNumber)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]any{
		"order":       order,
		"transaction": txn,
	})
}

// parseGrossAmount converts the gateway's decimal-string amount ("130000.00")
// to whole currency units.
func parseGrossAmount(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f)), nil
}
