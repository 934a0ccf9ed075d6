package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

// PaymentClient talks to the payment service: one call to mint an intent for
// a created order, one call to confirm the signed widget callback. Both are
// attempted at most once per checkout attempt.
type PaymentClient struct {
	c *Client
}

func NewPaymentClient(c *Client) *PaymentClient {
	return &PaymentClient{c: c}
}

type initiateRequest struct {
	OrderID int64 `json:"orderId"`
}

// InitiatePayment requests a payment intent keyed by the created order id.
func (c *PaymentClient) InitiatePayment(ctx context.Context, orderID int64) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	err := c.c.doJSON(ctx, http.MethodPost, "/payments/initiate", initiateRequest{OrderID: orderID}, &intent)
	if err != nil {
		return nil, fmt.Errorf("failed to request payment intent: %w", err)
	}
	return &intent, nil
}

// ConfirmPayment forwards the widget's signed callback payload verbatim. A
// rejection (signature mismatch) comes back as *ServerError.
func (c *PaymentClient) ConfirmPayment(ctx context.Context, conf domain.PaymentConfirmation) error {
	if err := c.c.doJSON(ctx, http.MethodPost, "/payments/confirm", conf, nil); err != nil {
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	return nil
}
