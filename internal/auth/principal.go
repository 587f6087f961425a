// Package auth defines the authenticated principal passed explicitly
// into every core operation.  Handlers build a Principal from the JWT
// claims that the middleware stored in the request context; services
// never reach into ambient state to discover who is calling.
package auth

// Role names carried in the JWT "role" claim.
const (
	RoleAttendee  = "ATTENDEE"
	RoleOrganiser = "ORGANISER"
	RoleAdmin     = "ADMIN"
)

// Principal identifies the caller of a core operation.
type Principal struct {
	UserID uint64 // subject of the access token
	Role   string // role claim (ATTENDEE/ORGANISER/ADMIN)
}

// Admin reports whether the principal carries the admin role.  Service
// code still double-checks against the user directory for privileged
// operations so a stale token cannot grant elevated access on its own.
func (p Principal) Admin() bool {
	return p.Role == RoleAdmin
}
