package domain

// BridgeState is the payment bridge position within a single gateway checkout
// attempt. Entered only when the payment method is Razorpay.
type BridgeState string

const (
	BridgeIdle            BridgeState = "IDLE"
	BridgeScriptLoading   BridgeState = "SCRIPT_LOADING"
	BridgeIntentRequested BridgeState = "INTENT_REQUESTED"
	BridgeWidgetOpen      BridgeState = "WIDGET_OPEN"
	BridgeConfirming      BridgeState = "CONFIRMING"
	BridgeSettled         BridgeState = "SETTLED"
	BridgeFailed          BridgeState = "FAILED"
)

func (s BridgeState) IsTerminal() bool {
	return s == BridgeSettled || s == BridgeFailed
}

func (s BridgeState) String() string {
	return string(s)
}

var bridgeTransitions = map[BridgeState][]BridgeState{
	BridgeIdle: {BridgeScriptLoading},
	// The SDK may already be loaded, in which case loading is a no-op and the
	// bridge moves straight on.
	BridgeScriptLoading:   {BridgeIntentRequested, BridgeFailed},
	BridgeIntentRequested: {BridgeWidgetOpen, BridgeFailed},
	BridgeWidgetOpen:      {BridgeConfirming, BridgeFailed},
	BridgeConfirming:      {BridgeSettled, BridgeFailed},
}

// CanBridgeTransition reports whether the payment bridge may move from one
// state to another.
func CanBridgeTransition(from, to BridgeState) bool {
	for _, allowed := range bridgeTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
