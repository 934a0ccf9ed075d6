package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/checkout"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/remote"
)

// CheckoutService is the slice of the orchestrator the handlers need.
type CheckoutService interface {
	Snapshot(ctx context.Context, userID string) (*domain.CartSnapshot, error)
	PlaceOrder(ctx context.Context, userID string, form domain.CheckoutForm) (*domain.Order, error)
}

type CheckoutHandler struct {
	service CheckoutService
	timeout time.Duration
	// waitTimeout bounds PlaceOrder, which for gateway payments waits on the
	// hosted widget. It must outlive the widget session TTL or the user gets
	// cut off mid-payment.
	waitTimeout time.Duration
}

func NewCheckoutHandler(service CheckoutService, timeout, waitTimeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service:     service,
		timeout:     timeout,
		waitTimeout: waitTimeout,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

type PlaceOrderRequestDTO struct {
	DeliveryAddress string `json:"delivery_address"`
	PaymentMethod   string `json:"payment_method"`
}

// GET /api/v1/checkout/cart
func (h *CheckoutHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	snapshot, err := h.service.Snapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, remote.ErrEmptyCart) {
			// An empty cart is a state, not an error
			respondJSON(w, http.StatusOK, domain.CartSnapshot{Items: []domain.CartLineItem{}})
			return
		}
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.service.PlaceOrder(ctx, userID, domain.CheckoutForm{
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	var ve *checkout.ValidationError
	if errors.As(err, &ve) {
		respondJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "checkout form validation failed",
			Code:   "validation_failed",
			Fields: ve.Fields,
		})
		return
	}

	if errors.Is(err, checkout.ErrAttemptInFlight) {
		respondError(w, http.StatusConflict, "attempt_in_flight",
			"a checkout attempt is already in progress")
		return
	}

	if errors.Is(err, remote.ErrEmptyCart) {
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
		return
	}

	var pe *checkout.PaymentError
	if errors.As(err, &pe) {
		// The order exists server-side but is unpaid
		respondError(w, http.StatusBadGateway, "payment_failed", pe.Reason)
		return
	}

	var se *remote.ServerError
	if errors.As(err, &se) {
		respondError(w, http.StatusBadGateway, se.Code, se.Message)
		return
	}

	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func getUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value("request_id").(string); ok {
		return requestID
	}
	return ""
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
