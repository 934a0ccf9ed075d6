package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/gateway"
)

// WidgetSessions resolves an open widget session with its outcome.
type WidgetSessions interface {
	Complete(gatewayOrderID string, conf domain.PaymentConfirmation) error
	Dismiss(gatewayOrderID string) error
}

// PaymentHandler receives the hosted widget's callbacks and routes them to
// the waiting checkout attempt.
type PaymentHandler struct {
	sessions WidgetSessions
}

func NewPaymentHandler(sessions WidgetSessions) *PaymentHandler {
	return &PaymentHandler{sessions: sessions}
}

type PaymentCallbackDTO struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	GatewaySignature string `json:"gatewaySignature"`
}

type DismissDTO struct {
	GatewayOrderID string `json:"gatewayOrderId"`
}

// POST /api/v1/payments/callback
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req PaymentCallbackDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.GatewaySignature == "" {
		respondError(w, http.StatusBadRequest, "invalid_callback",
			"gatewayOrderId, gatewayPaymentId and gatewaySignature are required")
		return
	}

	err := h.sessions.Complete(req.GatewayOrderID, domain.PaymentConfirmation{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		GatewaySignature: req.GatewaySignature,
	})
	if err != nil {
		handleSessionError(w, r, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// POST /api/v1/payments/dismiss
func (h *PaymentHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	var req DismissDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.GatewayOrderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_callback", "gatewayOrderId is required")
		return
	}

	if err := h.sessions.Dismiss(req.GatewayOrderID); err != nil {
		handleSessionError(w, r, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func handleSessionError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, gateway.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session_not_found",
			"no open widget session for this gateway order")
		return
	}
	log.Printf("widget session callback error (request %s): %v", getRequestID(r.Context()), err)
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
