package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

// runPaymentBridge drives the bridge state machine for one gateway attempt:
// SDK load, intent request, widget round trip, confirmation. Every failure
// past this point leaves the order created-but-unpaid server-side; the bridge
// never retries and never compensates.
func (s *Service) runPaymentBridge(ctx context.Context, attemptID, userID string, status *domain.AttemptStatus, order *domain.Order) error {
	state := domain.BridgeIdle
	advance := func(to domain.BridgeState) error {
		if !domain.CanBridgeTransition(state, to) {
			return fmt.Errorf("%w: bridge %s -> %s", ErrIllegalTransition, state, to)
		}
		state = to
		s.metrics.Bridge(to.String())
		return nil
	}

	fail := func(reason string, cause error) error {
		if err := advance(domain.BridgeFailed); err != nil {
			log.Printf("bridge failure bookkeeping error for attempt %v: %v", attemptID, err)
		}
		s.markTerminal(ctx, attemptID, status, domain.AttemptStatusUnpaid,
			reason, unpaidPayload(attemptID, userID, order, reason))
		return &PaymentError{Reason: reason, Err: cause}
	}

	if err := advance(domain.BridgeScriptLoading); err != nil {
		return err
	}
	if err := s.widget.Load(ctx); err != nil {
		return fail(ReasonSDKLoadFailed, err)
	}

	if err := advance(domain.BridgeIntentRequested); err != nil {
		return err
	}
	intent, err := s.payments.InitiatePayment(ctx, order.ID)
	if err != nil {
		return fail(ReasonIntentRequestFailed, err)
	}
	if err := s.advance(status, domain.AttemptStatusPaymentPending); err != nil {
		return err
	}
	if errSet := s.journal.SetGatewayOrder(ctx, attemptID, intent.GatewayOrderID); errSet != nil {
		log.Printf("failed to journal gateway order %v: %v", intent.GatewayOrderID, errSet)
	}

	if err := advance(domain.BridgeWidgetOpen); err != nil {
		return err
	}
	resultCh, err := s.widget.Open(ctx, *intent)
	if err != nil {
		return fail(ReasonWidgetOpenFailed, err)
	}

	var confirmation *domain.PaymentConfirmation
	select {
	case widgetResult := <-resultCh:
		if widgetResult.Dismissed {
			// The user closed the widget; no error detail beyond returning
			// control to the checkout screen.
			return fail(ReasonDismissed, nil)
		}
		confirmation = widgetResult.Confirmation
	case <-ctx.Done():
		// Drop the session so a late callback is refused instead of being
		// acknowledged into a channel nobody reads.
		s.widget.Abandon(intent.GatewayOrderID)
		return fail(ReasonAbandoned, ctx.Err())
	}

	if err := advance(domain.BridgeConfirming); err != nil {
		return err
	}
	if err := s.payments.ConfirmPayment(ctx, *confirmation); err != nil {
		return fail(ReasonConfirmationRejected, err)
	}

	if err := advance(domain.BridgeSettled); err != nil {
		return err
	}
	if errSet := s.journal.SetGatewayPayment(ctx, attemptID, confirmation.GatewayPaymentID); errSet != nil {
		log.Printf("failed to journal gateway payment %v: %v", confirmation.GatewayPaymentID, errSet)
	}
	s.markTerminal(ctx, attemptID, status, domain.AttemptStatusCompleted,
		"", completionPayload(attemptID, userID, order, ""))
	return nil
}

func unpaidPayload(attemptID, userID string, order *domain.Order, reason string) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"attempt_id":   attemptID,
		"user_id":      userID,
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"reason":       reason,
		"failed_at":    time.Now(),
	})
	return payload
}
