// Package attendance implements the reservation and payment
// reconciliation core: RSVP creation under a per-event capacity
// ceiling, block enforcement, cancellation with an immutable audit
// trail, webhook-driven payment confirmation and refund processing.
// Persistence is abstracted behind the Store interface so the engine
// can be exercised against MySQL in production and an in-memory store
// in tests.
package attendance

import (
	"errors"
	"fmt"
)

// Expected business outcomes are sentinel errors so callers handle
// each case explicitly.  Handlers translate these into HTTP statuses:
// validation errors become 400/409, not-found 404, access denied 403.
var (
	// ErrBlocked is returned when a blocked user attempts to RSVP.
	ErrBlocked = errors.New("user is blocked from this event")

	// ErrAlreadyReserved is returned when the (user, event) pair
	// already holds an RSVP.
	ErrAlreadyReserved = errors.New("already reserved for this event")

	// ErrEventFull is returned when the event's capacity ceiling has
	// been reached.
	ErrEventFull = errors.New("event is full")

	// ErrAlreadyBlocked is returned on a duplicate block attempt.
	ErrAlreadyBlocked = errors.New("user is already blocked from this event")

	// ErrNotBlocked is returned when unblocking a user who has no
	// block record for the event.
	ErrNotBlocked = errors.New("user is not blocked from this event")

	// ErrNothingToRefund is returned when refunding a cancellation
	// whose payment snapshot is not "paid".
	ErrNothingToRefund = errors.New("no payment to refund")

	// ErrAlreadyRefunded is returned when the cancellation has
	// already been refunded; no gateway call is made.
	ErrAlreadyRefunded = errors.New("payment already refunded")

	// ErrPaymentNotRequired is returned when checkout is requested
	// for a free event.
	ErrPaymentNotRequired = errors.New("event does not require payment")

	// ErrPaymentNotPending is returned when checkout is requested for
	// an RSVP that is not awaiting payment.
	ErrPaymentNotPending = errors.New("payment is not pending")

	// ErrEventNotFound / ErrRSVPNotFound / ErrCancellationNotFound
	// indicate a missing referenced record.
	ErrEventNotFound        = errors.New("event not found")
	ErrRSVPNotFound         = errors.New("rsvp not found")
	ErrCancellationNotFound = errors.New("cancellation record not found")

	// ErrAccessDenied is returned when the caller is neither the
	// event's organiser nor an admin for a privileged operation.
	ErrAccessDenied = errors.New("access denied")
)

// GatewayError wraps a failure talking to the external payment
// gateway.  Permanent failures (bad signature, malformed payload)
// must not be retried; transient ones (network, gateway outage) are
// retriable by the caller or by the gateway's own redelivery.
type GatewayError struct {
	Permanent bool
	Err       error
}

func (e *GatewayError) Error() string {
	if e.Permanent {
		return fmt.Sprintf("gateway: permanent failure: %v", e.Err)
	}
	return fmt.Sprintf("gateway: transient failure: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
