package repository

import (
	"context"
	"time"

	"github.com/iliyamo/event-attendance/internal/attendance"
	"github.com/iliyamo/event-attendance/internal/model"
)

// IsBlocked reports whether the user is barred from the event.
func (s *Store) IsBlocked(ctx context.Context, eventID, userID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM blocked_rsvps WHERE event_id = ? AND user_id = ?`
	var n int64
	if err := s.q(ctx).QueryRowContext(ctx, q, eventID, userID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateBlock inserts a block record.  The unique key on
// (event_id, user_id) turns a concurrent double-block into
// attendance.ErrAlreadyBlocked.
func (s *Store) CreateBlock(ctx context.Context, b *model.BlockedRSVP) error {
	const q = `INSERT INTO blocked_rsvps (event_id, user_id, blocked_by_user_id, blocked_at)
			   VALUES (?, ?, ?, ?)`
	if b.BlockedAt.IsZero() {
		b.BlockedAt = time.Now().UTC()
	}
	res, err := s.q(ctx).ExecContext(ctx, q, b.EventID, b.UserID, b.BlockedByID, b.BlockedAt)
	if err != nil {
		if isDuplicateEntry(err) {
			return attendance.ErrAlreadyBlocked
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// DeleteBlock removes a block record and reports whether one existed.
// Unblocking never restores the removed reservation.
func (s *Store) DeleteBlock(ctx context.Context, eventID, userID uint64) (bool, error) {
	const q = `DELETE FROM blocked_rsvps WHERE event_id = ? AND user_id = ?`
	res, err := s.q(ctx).ExecContext(ctx, q, eventID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
