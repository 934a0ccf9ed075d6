// Package journal persists checkout attempts and their outbox events. Every
// attempt that survives order creation leaves a terminal event here so the
// backend can reconcile unpaid orders.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

var (
	ErrAttemptNotFound = errors.New("checkout attempt not found")
)

// Attempt is one journaled run of the checkout orchestrator.
type Attempt struct {
	ID               string
	UserID           string
	Status           domain.AttemptStatus
	CartSnapshot     []byte
	Subtotal         float64
	OrderID          *int64
	OrderNumber      *string
	GatewayOrderID   *string
	GatewayPaymentID *string
	FailureReason    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OutboxEvent is appended in the same transaction as the terminal status
// update and published to Kafka by the poller, at least once.
type OutboxEvent struct {
	ID          string
	AttemptID   string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Event types carried on the checkout-events topic.
const (
	EventCheckoutCompleted = "checkout.completed"
	EventCheckoutUnpaid    = "checkout.unpaid"
	EventCheckoutFailed    = "checkout.failed"
)

// EventTypeFor maps a terminal attempt status to its outbox event type.
func EventTypeFor(status domain.AttemptStatus) string {
	switch status {
	case domain.AttemptStatusCompleted:
		return EventCheckoutCompleted
	case domain.AttemptStatusUnpaid:
		return EventCheckoutUnpaid
	default:
		return EventCheckoutFailed
	}
}

type Store interface {
	CreateAttempt(ctx context.Context, attempt *Attempt) error
	GetAttempt(ctx context.Context, id string) (*Attempt, error)

	// SetOrder records the created order and moves the attempt to ORDER_CREATED.
	SetOrder(ctx context.Context, id string, orderID int64, orderNumber string) error
	// SetGatewayOrder records the payment intent and moves to PAYMENT_PENDING.
	SetGatewayOrder(ctx context.Context, id string, gatewayOrderID string) error
	// SetGatewayPayment records the widget's payment id once confirmed.
	SetGatewayPayment(ctx context.Context, id string, gatewayPaymentID string) error
	// MarkTerminal sets a terminal status and appends the outbox event in one
	// transaction.
	MarkTerminal(ctx context.Context, id string, status domain.AttemptStatus, failureReason string, payload []byte) error

	// GetStuckAttempts returns non-terminal attempts not updated since the
	// cutoff, for the recovery tick.
	GetStuckAttempts(ctx context.Context, olderThan time.Time) ([]Attempt, error)

	GetUnprocessedEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, eventID string) error

	Close() error
}
