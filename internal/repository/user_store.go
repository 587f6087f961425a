package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-attendance/internal/auth"
)

// IsAdmin reports whether the user holds the admin role.  Used by the
// organiser-or-admin checks in moderation and refund flows.
func (s *Store) IsAdmin(ctx context.Context, userID uint64) (bool, error) {
	const q = `SELECT role FROM users WHERE id = ? AND is_active = 1`
	var role string
	err := s.q(ctx).QueryRowContext(ctx, q, userID).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return role == auth.RoleAdmin, nil
}
