package domain

type AttemptStatus string

const (
	AttemptStatusInitiated      AttemptStatus = "INITIATED"
	AttemptStatusOrderCreated   AttemptStatus = "ORDER_CREATED"
	AttemptStatusPaymentPending AttemptStatus = "PAYMENT_PENDING"
	AttemptStatusCompleted      AttemptStatus = "COMPLETED"
	// AttemptStatusUnpaid means the order exists server-side but the payment
	// round trip did not finish. Reconciled out-of-band by the backend.
	AttemptStatusUnpaid AttemptStatus = "UNPAID"
	AttemptStatusFailed AttemptStatus = "FAILED"
)

func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptStatusCompleted || s == AttemptStatusUnpaid || s == AttemptStatusFailed
}

// String representation (for logging)
func (s AttemptStatus) String() string {
	return string(s)
}

var attemptTransitions = map[AttemptStatus][]AttemptStatus{
	AttemptStatusInitiated:      {AttemptStatusOrderCreated, AttemptStatusFailed},
	AttemptStatusOrderCreated:   {AttemptStatusPaymentPending, AttemptStatusCompleted, AttemptStatusUnpaid},
	AttemptStatusPaymentPending: {AttemptStatusCompleted, AttemptStatusUnpaid},
}

// CanTransitionTo reports whether an attempt may move from one status to
// another. Terminal statuses have no outgoing transitions.
func CanTransitionTo(from, to AttemptStatus) bool {
	for _, allowed := range attemptTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
