package checkout

import "errors"

var (
	// ErrAlreadyProcessing means another reconciliation attempt for the
	// same orderId is in flight; the duplicate is suppressed.
	ErrAlreadyProcessing = errors.New("order reconciliation already in progress")

	// ErrNoPendingOrder means no checkout handoff exists for the orderId.
	ErrNoPendingOrder = errors.New("no pending order")

	// ErrOrderMismatch means the pending order does not belong to the
	// caller, or the redirect parameters disagree with the handoff.
	ErrOrderMismatch = errors.New("order does not match pending checkout")
)
