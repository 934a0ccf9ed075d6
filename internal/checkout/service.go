// Package checkout sequences one user-facing Place Order action: validate the
// form, snapshot the cart, create the order, and for gateway payments drive
// the payment bridge to a terminal state. No step after order creation is ever
// compensated client-side.
package checkout

import (
	"context"

	validatorv10 "github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/cache"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/gateway"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/journal"
	"github.com/diyanmhd/flygan-ecommerce-sub000/pkg/metrics"
)

// CartReader loads the user's cart from the cart service.
type CartReader interface {
	LoadCart(ctx context.Context, userID string) ([]domain.CartLineItem, error)
}

// OrderSubmitter creates exactly one order per successful call.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, deliveryAddress string, method domain.PaymentMethod, items []domain.CartLineItem) (*domain.Order, error)
}

// PaymentGateway is the remote payment service: intent minting and callback
// confirmation.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, orderID int64) (*domain.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, conf domain.PaymentConfirmation) error
}

// Widget is the hosted checkout widget boundary: lazy SDK load plus an opened
// session whose outcome arrives on the returned channel. Abandon drops a
// session the bridge stopped waiting on.
type Widget interface {
	Load(ctx context.Context) error
	Open(ctx context.Context, intent domain.PaymentIntent) (<-chan gateway.WidgetResult, error)
	Abandon(gatewayOrderID string)
}

type Service struct {
	validate *validatorv10.Validate
	cart     CartReader
	orders   OrderSubmitter
	payments PaymentGateway
	widget   Widget
	journal  journal.Store
	cache    cache.SnapshotCache
	locks    cache.AttemptLocker
	metrics  *metrics.CheckoutMetrics
	sfg      singleflight.Group // prevents concurrent snapshot loads per user
}

func NewService(
	cart CartReader,
	orders OrderSubmitter,
	payments PaymentGateway,
	widget Widget,
	store journal.Store,
	snapshots cache.SnapshotCache,
	locks cache.AttemptLocker,
	m *metrics.CheckoutMetrics,
) *Service {
	return &Service{
		validate: NewValidator(),
		cart:     cart,
		orders:   orders,
		payments: payments,
		widget:   widget,
		journal:  store,
		cache:    snapshots,
		locks:    locks,
		metrics:  m,
	}
}
