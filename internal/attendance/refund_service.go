package attendance

import (
	"context"
	"time"

	"github.com/iliyamo/event-attendance/internal/auth"
	"github.com/iliyamo/event-attendance/internal/model"
)

// RefundGateway reverses a confirmed payment with the external
// provider.  It returns the gateway's refund reference.
type RefundGateway interface {
	Refund(ctx context.Context, paymentIntentID string, amountCents int64) (string, error)
}

// RefundService processes refunds against cancellation audit records.
// A refund is tracked on the cancellation record itself, independent
// of the (already deleted) RSVP.
type RefundService struct {
	store   Store
	gateway RefundGateway
	now     func() time.Time
}

// NewRefundService constructs a RefundService.
func NewRefundService(store Store, gateway RefundGateway) *RefundService {
	return &RefundService{store: store, gateway: gateway, now: time.Now}
}

// Refund reverses the payment snapshotted on a cancellation record.
// Only the event's organiser or an admin may refund.  Preconditions:
// the snapshot must be "paid" (else ErrNothingToRefund) and not
// already refunded (else ErrAlreadyRefunded, with no gateway call).
//
// The cancellation row is locked for the duration so concurrent
// refund attempts serialise.  After a gateway attempt the record is
// never left with a nil refund status: success commits "refunded"
// with the gateway reference, failure commits "failed" (retriable by
// calling Refund again) and the gateway error is returned.
func (s *RefundService) Refund(ctx context.Context, p auth.Principal, cancellationID uint64) error {
	var gatewayErr error
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		c, err := s.store.GetCancellationForUpdate(ctx, cancellationID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrCancellationNotFound
		}
		ev, err := s.store.GetEvent(ctx, c.EventID)
		if err != nil {
			return err
		}
		if ev.OrganiserID != p.UserID {
			admin, err := s.store.IsAdmin(ctx, p.UserID)
			if err != nil {
				return err
			}
			if !admin {
				return ErrAccessDenied
			}
		}
		if c.PaymentStatus == nil || *c.PaymentStatus != model.PaymentStatusPaid {
			return ErrNothingToRefund
		}
		if c.Refunded() {
			return ErrAlreadyRefunded
		}

		amount := int64(0)
		if c.AmountPaidCents != nil {
			amount = *c.AmountPaidCents
		}
		intentID := ""
		if c.PaymentIntentID != nil {
			intentID = *c.PaymentIntentID
		}

		gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
		refundID, err := s.gateway.Refund(gctx, intentID, amount)
		cancel()
		if err != nil {
			// Commit the failed marker; returning the error here
			// would roll it back and leave the status nil.
			failed := model.RefundStatusFailed
			if uerr := s.store.SetRefundResult(ctx, c.ID, failed, nil, nil, nil); uerr != nil {
				return uerr
			}
			if _, ok := err.(*GatewayError); ok {
				gatewayErr = err
			} else {
				gatewayErr = &GatewayError{Err: err}
			}
			return nil
		}

		refundedAt := s.now().UTC()
		by := p.UserID
		return s.store.SetRefundResult(ctx, c.ID, model.RefundStatusRefunded, &refundID, &refundedAt, &by)
	})
	if err != nil {
		return err
	}
	return gatewayErr
}
