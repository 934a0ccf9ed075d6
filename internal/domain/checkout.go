package domain

import "time"

type PaymentMethod string

const (
	// PaymentMethodCash is cash on delivery, settled outside the system.
	PaymentMethodCash PaymentMethod = "Cod"
	// PaymentMethodGateway is paid through the hosted Razorpay widget.
	PaymentMethodGateway PaymentMethod = "Razorpay"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodGateway
}

// IsGateway reports whether the method requires the payment bridge round trip.
func (m PaymentMethod) IsGateway() bool {
	return m == PaymentMethodGateway
}

// CartLineItem is one line of the user's cart as returned by the cart service.
// The snapshot taken at checkout time is immutable for the rest of the attempt.
type CartLineItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    int32   `json:"quantity"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// CartSnapshot captures the full cart state at checkout time. Subtotal is
// display-only; the order service computes the authoritative total itself.
type CartSnapshot struct {
	Items      []CartLineItem `json:"items"`
	Subtotal   float64        `json:"subtotal"`
	CapturedAt time.Time      `json:"captured_at"`
}

// Subtotal sums unit price times quantity over all line items.
func Subtotal(items []CartLineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// CheckoutForm is the user-entered part of a checkout attempt. It lives only
// for the duration of one attempt.
type CheckoutForm struct {
	DeliveryAddress string        `json:"delivery_address"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
}

// Order is the authoritative result of checkout, created once by the order
// service and never mutated client-side.
type Order struct {
	ID              int64         `json:"id"`
	OrderNumber     string        `json:"orderNumber"`
	TotalAmount     float64       `json:"totalAmount"`
	Status          string        `json:"status"`
	DeliveryAddress string        `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// PaymentIntent authorizes charging a specific amount for a specific order via
// the external gateway. Ephemeral, consumed immediately by the payment bridge.
type PaymentIntent struct {
	// Amount is in the smallest currency unit (paise).
	Amount         int64  `json:"amount"`
	GatewayOrderID string `json:"gatewayOrderId"`
}

// PaymentConfirmation is the signed payload produced by the widget completion
// callback. It is forwarded verbatim to the confirmation endpoint.
type PaymentConfirmation struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	GatewaySignature string `json:"gatewaySignature"`
}
