package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrAttemptInFlight rejects a second Place Order while one is running.
	ErrAttemptInFlight = errors.New("checkout attempt already in progress")
	// ErrIllegalTransition guards the attempt and bridge state machines.
	ErrIllegalTransition = errors.New("illegal checkout state transition")
)

// ValidationError carries field-keyed messages for inline rendering. It never
// reaches the network layer.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout form validation failed: %d field(s)", len(e.Fields))
}

// Payment failure reasons, journaled per attempt. Dismissal and confirmation
// rejection are recorded distinctly but surfaced identically to the user.
const (
	ReasonSDKLoadFailed        = "sdk_load_failed"
	ReasonIntentRequestFailed  = "intent_request_failed"
	ReasonWidgetOpenFailed     = "widget_open_failed"
	ReasonDismissed            = "dismissed"
	ReasonAbandoned            = "abandoned"
	ReasonConfirmationRejected = "confirmation_rejected"
)

// PaymentError means the order was created but the payment round trip did not
// settle. The order remains server-side in an unpaid state.
type PaymentError struct {
	Reason string
	Err    error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("payment failed (%s)", e.Reason)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}
