package attendance

import (
	"context"
	"time"

	"github.com/iliyamo/event-attendance/internal/auth"
	"github.com/iliyamo/event-attendance/internal/model"
)

// RSVPService is the reservation manager façade.  It owns the
// creation path (block check, duplicate check, capacity guard) and
// every removal path (self cancel, organiser cancel, block), keeping
// the cancellation audit trail and payment ledger consistent with the
// RSVP rows they describe.
type RSVPService struct {
	store Store
	now   func() time.Time
}

// NewRSVPService constructs an RSVPService backed by the given store.
func NewRSVPService(store Store) *RSVPService {
	return &RSVPService{store: store, now: time.Now}
}

// Create reserves a slot on the event for the principal.  Checks run
// in order and short-circuit: block, duplicate, capacity.  For paid
// events the RSVP starts with payment status "pending"; free events
// leave it nil.  The capacity count and the insert execute under the
// event's row lock so concurrent creations for the same event cannot
// oversubscribe it.
func (s *RSVPService) Create(ctx context.Context, p auth.Principal, eventID uint64) (*model.RSVP, error) {
	var created *model.RSVP
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		ev, err := s.store.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		blocked, err := s.store.IsBlocked(ctx, eventID, p.UserID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrBlocked
		}
		existing, err := s.store.GetRSVP(ctx, eventID, p.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyReserved
		}
		if ev.Capacity != nil {
			count, err := s.store.CountRSVPs(ctx, eventID)
			if err != nil {
				return err
			}
			if count >= int64(*ev.Capacity) {
				return ErrEventFull
			}
		}
		r := &model.RSVP{UserID: p.UserID, EventID: eventID}
		if !ev.Free() {
			st := model.PaymentStatusPending
			r.PaymentStatus = &st
		}
		if err := s.store.CreateRSVP(ctx, r); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Cancel removes the principal's own RSVP for the event.  When the
// RSVP carries payment activity an audit record is written first with
// initiated_by "attendee"; the payment ledger entry (if any) and the
// RSVP row are then deleted inside the same transaction.
func (s *RSVPService) Cancel(ctx context.Context, p auth.Principal, eventID uint64) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		ev, err := s.store.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		r, err := s.store.GetRSVP(ctx, eventID, p.UserID)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrRSVPNotFound
		}
		by := p.UserID
		return s.removeWithAudit(ctx, ev, r, model.InitiatedByAttendee, &by)
	})
}

// CancelAsOrganiser removes an attendee's RSVP on behalf of the event
// organiser or an admin.  The attendee is free to reserve again
// afterwards.  Returns ErrAccessDenied when the caller is neither the
// organiser nor an admin.
func (s *RSVPService) CancelAsOrganiser(ctx context.Context, p auth.Principal, eventID, attendeeID uint64) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		ev, err := s.store.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		initiatedBy, err := s.authorise(ctx, p, ev)
		if err != nil {
			return err
		}
		r, err := s.store.GetRSVP(ctx, eventID, attendeeID)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrRSVPNotFound
		}
		by := p.UserID
		return s.removeWithAudit(ctx, ev, r, initiatedBy, &by)
	})
}

// Block bars a user from the event.  Any existing RSVP is removed
// with the same audit sequence as an organiser cancel, and a block
// record is inserted so future creation attempts fail with Blocked.
// A duplicate block attempt returns ErrAlreadyBlocked.
func (s *RSVPService) Block(ctx context.Context, p auth.Principal, eventID, userID uint64) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		ev, err := s.store.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		initiatedBy, err := s.authorise(ctx, p, ev)
		if err != nil {
			return err
		}
		blocked, err := s.store.IsBlocked(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrAlreadyBlocked
		}
		r, err := s.store.GetRSVP(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if r != nil {
			by := p.UserID
			if err := s.removeWithAudit(ctx, ev, r, initiatedBy, &by); err != nil {
				return err
			}
		}
		return s.store.CreateBlock(ctx, &model.BlockedRSVP{
			EventID:     eventID,
			UserID:      userID,
			BlockedByID: p.UserID,
		})
	})
}

// Unblock removes the block record only; it intentionally does not
// resurrect any previously cancelled RSVP.
func (s *RSVPService) Unblock(ctx context.Context, p auth.Principal, eventID, userID uint64) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		ev, err := s.store.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if _, err := s.authorise(ctx, p, ev); err != nil {
			return err
		}
		existed, err := s.store.DeleteBlock(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if !existed {
			return ErrNotBlocked
		}
		return nil
	})
}

// authorise checks that the principal may manage the event's
// attendance and returns the initiated_by value recorded on any audit
// rows the operation produces: "organiser" when the caller owns the
// event, "admin" when acting through admin privilege.
func (s *RSVPService) authorise(ctx context.Context, p auth.Principal, ev model.Event) (string, error) {
	if ev.OrganiserID == p.UserID {
		return model.InitiatedByOrganiser, nil
	}
	admin, err := s.store.IsAdmin(ctx, p.UserID)
	if err != nil {
		return "", err
	}
	if !admin {
		return "", ErrAccessDenied
	}
	return model.InitiatedByAdmin, nil
}

// removeWithAudit deletes an RSVP, preceded by a cancellation record
// when the RSVP has payment activity and by the removal of any
// payment ledger rows.  Must run inside the caller's transaction so a
// partial failure cannot orphan a ledger entry or drop an RSVP
// without its audit trail.
func (s *RSVPService) removeWithAudit(ctx context.Context, ev model.Event, r *model.RSVP, initiatedBy string, cancelledBy *uint64) error {
	if ev.RequiresPayment && r.HasPaymentActivity() {
		c := &model.CancelledRSVP{
			RSVPID:          r.ID,
			UserID:          r.UserID,
			EventID:         r.EventID,
			InitiatedBy:     initiatedBy,
			CancelledByID:   cancelledBy,
			PaymentStatus:   r.PaymentStatus,
			AmountPaidCents: r.AmountPaidCents,
			PaymentIntentID: r.PaymentIntentID,
		}
		if err := s.store.CreateCancellation(ctx, c); err != nil {
			return err
		}
	}
	// Ledger rows reference the RSVP; delete them first.
	if err := s.store.DeletePaymentsForRSVP(ctx, r.ID); err != nil {
		return err
	}
	return s.store.DeleteRSVP(ctx, r.ID)
}

// AttendeeCount returns the number of active RSVPs for an event.  It
// backs the public availability projection and does not take the
// event lock; the authoritative count used for admission always comes
// from inside Create's guarded section.
func (s *RSVPService) AttendeeCount(ctx context.Context, eventID uint64) (int64, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return 0, err
	}
	return s.store.CountRSVPs(ctx, eventID)
}
