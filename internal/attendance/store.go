package attendance

import (
	"context"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
)

// Store is the persistence contract for the attendance core.  The
// MySQL implementation lives in internal/repository; tests use an
// in-memory fake.  All mutating methods must be called inside the
// function passed to WithTx so that multi-step sequences (audit write,
// ledger delete, RSVP delete) commit or roll back as one unit.
//
// Concurrency contract: LockEvent must take an exclusive per-event
// lock that is held until the surrounding WithTx completes.  Capacity
// counting and RSVP insertion always happen under that lock, which is
// what makes overcommit structurally impossible rather than merely
// unlikely.
type Store interface {
	// WithTx runs fn inside a transaction.  A nested call reuses the
	// transaction already carried by ctx.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Events (owned externally; read-only here).
	GetEvent(ctx context.Context, eventID uint64) (model.Event, error)
	// LockEvent reads the event row under an exclusive lock,
	// serialising all capacity mutations for the event.
	LockEvent(ctx context.Context, eventID uint64) (model.Event, error)

	// RSVPs.
	CountRSVPs(ctx context.Context, eventID uint64) (int64, error)
	GetRSVP(ctx context.Context, eventID, userID uint64) (*model.RSVP, error)
	GetRSVPByID(ctx context.Context, rsvpID uint64) (*model.RSVP, error)
	CreateRSVP(ctx context.Context, r *model.RSVP) error
	DeleteRSVP(ctx context.Context, rsvpID uint64) error
	// SetRSVPPaid transitions a pending RSVP to paid with the
	// gateway-confirmed amount and payment reference.
	SetRSVPPaid(ctx context.Context, rsvpID uint64, paymentIntentID string, amountCents int64) error
	SetRSVPPaymentFailed(ctx context.Context, rsvpID uint64) error
	// ListPendingRSVPsBefore returns RSVPs still awaiting payment
	// that were created before the cutoff, oldest first.
	ListPendingRSVPsBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.RSVP, error)

	// Block registry.
	IsBlocked(ctx context.Context, eventID, userID uint64) (bool, error)
	CreateBlock(ctx context.Context, b *model.BlockedRSVP) error
	// DeleteBlock reports whether a block record existed.
	DeleteBlock(ctx context.Context, eventID, userID uint64) (bool, error)

	// Cancellation audit log (append-only; refund fields excepted).
	CreateCancellation(ctx context.Context, c *model.CancelledRSVP) error
	// GetCancellationForUpdate locks the record so concurrent refund
	// attempts serialise.
	GetCancellationForUpdate(ctx context.Context, id uint64) (*model.CancelledRSVP, error)
	SetRefundResult(ctx context.Context, id uint64, status string, refundID *string, refundedAt *time.Time, refundedBy *uint64) error

	// Payment ledger.
	CreatePayment(ctx context.Context, p *model.Payment) error
	DeletePaymentsForRSVP(ctx context.Context, rsvpID uint64) error

	// Processed webhook registry.  InsertWebhookEvent returns false
	// when the gateway event ID has already been recorded.
	InsertWebhookEvent(ctx context.Context, gatewayEventID, eventType string) (bool, error)

	// User directory.
	IsAdmin(ctx context.Context, userID uint64) (bool, error)
}
