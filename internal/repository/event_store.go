package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-attendance/internal/attendance"
	"github.com/iliyamo/event-attendance/internal/model"
)

const eventColumns = `id, title, created_by_user_id, capacity, price_cents, requires_payment, starts_at, created_at, updated_at`

// GetEvent loads an event row without locking.  Returns
// attendance.ErrEventNotFound when the event does not exist.
func (s *Store) GetEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return s.scanEvent(s.q(ctx).QueryRowContext(ctx, q, eventID))
}

// LockEvent loads the event row under an exclusive row lock.  Every
// capacity mutation for the event goes through this lock, which
// serialises the count-then-insert sequence in reservation creation
// against concurrent attempts (the overcommit race from §"read count,
// then insert" cannot occur).  Must be called inside WithTx; the lock
// is released when the transaction ends.
func (s *Store) LockEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ? FOR UPDATE`
	return s.scanEvent(s.q(ctx).QueryRowContext(ctx, q, eventID))
}

func (s *Store) scanEvent(row *sql.Row) (model.Event, error) {
	var ev model.Event
	var capacity sql.NullInt64
	var price sql.NullInt64
	var startsAt sql.NullTime
	err := row.Scan(
		&ev.ID, &ev.Title, &ev.OrganiserID, &capacity, &price,
		&ev.RequiresPayment, &startsAt, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Event{}, attendance.ErrEventNotFound
		}
		return model.Event{}, err
	}
	if capacity.Valid {
		c := uint32(capacity.Int64)
		ev.Capacity = &c
	}
	if price.Valid {
		p := price.Int64
		ev.PriceCents = &p
	}
	if startsAt.Valid {
		t := startsAt.Time
		ev.StartsAt = &t
	}
	return ev, nil
}
