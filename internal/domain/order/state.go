package order

// OrderState implements the state pattern for the payment-facing part of the
// order lifecycle. Fulfillment states are reachable only through tooling
// outside this service and reject payment events.
type OrderState interface {
	Status() Status
	OnPaymentSucceeded(o *Order, transactionID string) (OrderState, error)
	OnPaymentDeclined(o *Order, reason string) (OrderState, error)
}

func stateFor(s Status) OrderState {
	switch s {
	case StatusPending:
		return pendingState{}
	case StatusPaid:
		return paidState{}
	default:
		return closedState{status: s}
	}
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) OnPaymentSucceeded(o *Order, transactionID string) (OrderState, error) {
	if transactionID == "" {
		return nil, ErrTransactionIDRequired
	}
	o.TransactionID = transactionID
	return paidState{}, nil
}

// A declined settlement leaves the order pending with no transaction id.
func (pendingState) OnPaymentDeclined(o *Order, _ string) (OrderState, error) {
	o.TransactionID = ""
	return pendingState{}, nil
}

type paidState struct{}

func (paidState) Status() Status { return StatusPaid }

func (paidState) OnPaymentSucceeded(*Order, string) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (paidState) OnPaymentDeclined(*Order, string) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

type closedState struct{ status Status }

func (s closedState) Status() Status { return s.status }

func (closedState) OnPaymentSucceeded(*Order, string) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (closedState) OnPaymentDeclined(*Order, string) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}
