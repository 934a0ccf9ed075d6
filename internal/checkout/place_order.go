package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/journal"
)

// PlaceOrder runs one checkout attempt end to end. The returned Order is the
// one the order service created, forwarded untouched to the confirmation
// view. A *PaymentError means the order exists server-side but is unpaid.
func (s *Service) PlaceOrder(ctx context.Context, userID string, form domain.CheckoutForm) (*domain.Order, error) {
	if fields := ValidateForm(s.validate, form); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// One attempt in flight per user, held through order creation and the
	// payment round trip.
	acquired, err := s.locks.Acquire(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	if !acquired {
		return nil, ErrAttemptInFlight
	}
	defer func() {
		if errRelease := s.locks.Release(context.WithoutCancel(ctx), userID); errRelease != nil {
			log.Printf("failed to release submission lock for user %v: %v", userID, errRelease)
		}
	}()

	snapshot, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.journalAttempt(ctx, userID, snapshot)
	if err != nil {
		return nil, err
	}
	status := attempt.Status

	order, err := s.orders.SubmitOrder(ctx, form.DeliveryAddress, form.PaymentMethod, snapshot.Items)
	if err != nil {
		s.markTerminal(ctx, attempt.ID, &status, domain.AttemptStatusFailed,
			"order submission failed", failurePayload(attempt.ID, userID, err))
		s.metrics.Outcome("order_failed")
		return nil, err
	}

	if err := s.advance(&status, domain.AttemptStatusOrderCreated); err != nil {
		return nil, err
	}
	if errSet := s.journal.SetOrder(ctx, attempt.ID, order.ID, order.OrderNumber); errSet != nil {
		// The order exists server-side; a journal hiccup must not fail the attempt.
		log.Printf("failed to journal created order %v: %v", order.ID, errSet)
	}

	s.checkTotals(snapshot, order)
	s.invalidateSnapshot(userID)

	if !form.PaymentMethod.IsGateway() {
		s.markTerminal(ctx, attempt.ID, &status, domain.AttemptStatusCompleted,
			"", completionPayload(attempt.ID, userID, order, ""))
		s.metrics.Outcome("completed_cash")
		return order, nil
	}

	if err := s.runPaymentBridge(ctx, attempt.ID, userID, &status, order); err != nil {
		s.metrics.Outcome("unpaid")
		return nil, err
	}

	s.metrics.Outcome("completed_gateway")
	return order, nil
}

// journalAttempt opens the attempt record before anything irreversible runs.
func (s *Service) journalAttempt(ctx context.Context, userID string, snapshot *domain.CartSnapshot) (*journal.Attempt, error) {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	attempt := &journal.Attempt{
		ID:           uuid.NewString(),
		UserID:       userID,
		Status:       domain.AttemptStatusInitiated,
		CartSnapshot: snapshotJSON,
		Subtotal:     snapshot.Subtotal,
	}
	if err := s.journal.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to journal checkout attempt: %w", err)
	}
	return attempt, nil
}

// advance moves the in-memory attempt status, guarding the state machine.
func (s *Service) advance(status *domain.AttemptStatus, to domain.AttemptStatus) error {
	if !domain.CanTransitionTo(*status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, *status, to)
	}
	*status = to
	return nil
}

// markTerminal journals a terminal status together with its outbox event.
// Failures are logged only; by this point the user-facing outcome is decided.
func (s *Service) markTerminal(ctx context.Context, attemptID string, status *domain.AttemptStatus, to domain.AttemptStatus, reason string, payload []byte) {
	if !domain.CanTransitionTo(*status, to) {
		log.Printf("refusing terminal transition %s -> %s for attempt %v", *status, to, attemptID)
		return
	}
	*status = to
	if err := s.journal.MarkTerminal(context.WithoutCancel(ctx), attemptID, to, reason, payload); err != nil {
		log.Printf("failed to journal terminal status %v for attempt %v: %v", to, attemptID, err)
	}
}

// checkTotals compares the displayed subtotal with the authoritative server
// total. Divergence (stale pricing) is observable but the server total wins.
func (s *Service) checkTotals(snapshot *domain.CartSnapshot, order *domain.Order) {
	if math.Abs(snapshot.Subtotal-order.TotalAmount) > 0.009 {
		log.Printf("displayed subtotal %.2f diverges from server total %.2f for order %v",
			snapshot.Subtotal, order.TotalAmount, order.ID)
		s.metrics.TotalMismatches.Inc()
	}
}

func failurePayload(attemptID, userID string, cause error) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"attempt_id": attemptID,
		"user_id":    userID,
		"error":      cause.Error(),
		"failed_at":  time.Now(),
	})
	return payload
}

func completionPayload(attemptID, userID string, order *domain.Order, reason string) []byte {
	fields := map[string]interface{}{
		"attempt_id":     attemptID,
		"user_id":        userID,
		"order_id":       order.ID,
		"order_number":   order.OrderNumber,
		"total_amount":   order.TotalAmount,
		"payment_method": order.PaymentMethod,
		"finished_at":    time.Now(),
	}
	if reason != "" {
		fields["reason"] = reason
	}
	payload, _ := json.Marshal(fields)
	return payload
}
