package checkout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/gateway"
)

func widgetConfirmation(gatewayOrderID, paymentID, signature string) gateway.WidgetResult {
	return gateway.WidgetResult{
		Confirmation: &domain.PaymentConfirmation{
			GatewayOrderID:   gatewayOrderID,
			GatewayPaymentID: paymentID,
			GatewaySignature: signature,
		},
	}
}

func gatewayForm() domain.CheckoutForm {
	return domain.CheckoutForm{
		DeliveryAddress: "221B Baker Street, London",
		PaymentMethod:   domain.PaymentMethodGateway,
	}
}

func TestPlaceOrder_GatewaySuccess(t *testing.T) {
	f := newServiceFixture()
	f.widget.Result = widgetConfirmation("order_rzp_1", "pay_rzp_77", "sig_abc")

	order, err := f.service.PlaceOrder(context.Background(), "user-1", gatewayForm())
	require.NoError(t, err)
	assert.Equal(t, int64(42), order.ID)

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.widget.LoadCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.payments.InitiateCalls))
	assert.Equal(t, int64(42), f.payments.InitiatedOrderID)

	// the widget's confirmation reaches the payment service verbatim
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.payments.ConfirmCalls))
	assert.Equal(t, "order_rzp_1", f.payments.Confirmed.GatewayOrderID)
	assert.Equal(t, "pay_rzp_77", f.payments.Confirmed.GatewayPaymentID)
	assert.Equal(t, "sig_abc", f.payments.Confirmed.GatewaySignature)

	assert.Equal(t, domain.AttemptStatusCompleted, f.journal.TerminalStatus)
	assert.Equal(t, "order_rzp_1", f.journal.GatewayOrderID)
	assert.Equal(t, "pay_rzp_77", f.journal.GatewayPayment)
}

func TestPlaceOrder_SDKLoadFails(t *testing.T) {
	f := newServiceFixture()
	f.widget.LoadErr = errors.New("script fetch timed out")

	_, err := f.service.PlaceOrder(context.Background(), "user-1", gatewayForm())

	var pe *PaymentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonSDKLoadFailed, pe.Reason)

	// the order was already created; it remains unpaid server-side
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.orders.CallCount))
	assert.Zero(t, atomic.LoadInt32(&f.payments.InitiateCalls))
	assert.Equal(t, domain.AttemptStatusUnpaid, f.journal.TerminalStatus)
}

func TestPlaceOrder_IntentRequestFails(t *testing.T) {
	f := newServiceFixture()
	f.payments.Intent = nil
	f.payments.IntentErr = errors.New("payment service unavailable")

	_, err := f.service.PlaceOrder(context.Background(), "user-1", gatewayForm())

	var pe *PaymentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonIntentRequestFailed, pe.Reason)
	assert.Zero(t, atomic.LoadInt32(&f.widget.OpenCalls))
	assert.Equal(t, domain.AttemptStatusUnpaid, f.journal.TerminalStatus)
}

func TestPlaceOrder_WidgetOpenFails(t *testing.T) {
	f := newServiceFixture()
	f.widget.OpenErr = errors.New("widget refused intent")

	_, err := f.service.PlaceOrder(context.Background(), "user-1", gatewayForm())

	var pe *PaymentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonWidgetOpenFailed, pe.Reason)
	assert.Equal(t, domain.AttemptStatusUnpaid, f.journal.TerminalStatus)
}

func TestPlaceOrder_WidgetDismissed(t *testing.T) {
	f := newServiceFixture()
	f.widget.Result = gateway.WidgetResult{Dismissed: true}

	_, err := f.service.PlaceOrder(context.Background(), "user-1", gatewayForm())

	var pe *PaymentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonDismissed, pe.Reason)
	assert.NoError(t, pe.Err)

	assert.Zero(t, atomic.LoadInt32(&f.payments.ConfirmCalls))
	assert.Equal(t, domain.AttemptStatusUnpaid, f.journal.TerminalStatus)
	assert.Equal(t, "dismissed", f.journal.TerminalReason)
}

func TestPlaceOrder_ConfirmationRejected(t *testing.T) {
	f := newServiceFixture()
	f.payments.ConfirmErr = errors.New("signature mismatch")

	_, err := f.service.PlaceOrder(context.Background(), "user-1", gatewayForm())

	var pe *PaymentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonConfirmationRejected, pe.Reason)

	// rejection is no completion: the attempt ends unpaid, never completed
	assert.Equal(t, domain.AttemptStatusUnpaid, f.journal.TerminalStatus)
	assert.Equal(t, "confirmation_rejected", f.journal.TerminalReason)
	assert.Empty(t, f.journal.GatewayPayment)
}

func TestPlaceOrder_ContextCancelledWhileWidgetOpen(t *testing.T) {
	f := newServiceFixture()

	// never resolve the widget session
	blocked := &blockingWidget{opened: make(chan struct{})}
	f.service.widget = blocked

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-blocked.opened
		cancel()
	}()

	_, err := f.service.PlaceOrder(ctx, "user-1", gatewayForm())

	var pe *PaymentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonAbandoned, pe.Reason)
	assert.ErrorIs(t, pe, context.Canceled)
	assert.Equal(t, domain.AttemptStatusUnpaid, f.journal.TerminalStatus)

	// the session is dropped so a late callback cannot be acknowledged
	assert.Equal(t, "order_rzp_1", blocked.abandoned)
}

type blockingWidget struct {
	opened    chan struct{}
	abandoned string
}

func (w *blockingWidget) Load(context.Context) error { return nil }

func (w *blockingWidget) Open(context.Context, domain.PaymentIntent) (<-chan gateway.WidgetResult, error) {
	close(w.opened)
	return make(chan gateway.WidgetResult), nil
}

func (w *blockingWidget) Abandon(gatewayOrderID string) {
	w.abandoned = gatewayOrderID
}
