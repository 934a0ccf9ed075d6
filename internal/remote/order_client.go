package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

// OrderClient creates orders through the order service. One successful call
// creates exactly one order server-side, so the orchestrator must not invoke
// it more than once per attempt.
type OrderClient struct {
	c *Client
}

func NewOrderClient(c *Client) *OrderClient {
	return &OrderClient{c: c}
}

type checkoutItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

type checkoutRequest struct {
	DeliveryAddress string               `json:"deliveryAddress"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
	Items           []checkoutItem       `json:"items"`
}

// SubmitOrder posts the validated address, payment method and cart lines to
// the order service. Quantities only; the server re-prices every line itself.
func (c *OrderClient) SubmitOrder(ctx context.Context, deliveryAddress string, method domain.PaymentMethod, items []domain.CartLineItem) (*domain.Order, error) {
	req := checkoutRequest{
		DeliveryAddress: deliveryAddress,
		PaymentMethod:   method,
		Items:           make([]checkoutItem, len(items)),
	}
	for i, item := range items {
		req.Items[i] = checkoutItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	var order domain.Order
	if err := c.c.doJSON(ctx, http.MethodPost, "/Orders/checkout", req, &order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &order, nil
}
