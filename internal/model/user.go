package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Account registration and credential management live outside
// this service; the attendance core reads users only to resolve
// display names for listings and to answer admin-role checks.
//
// Fields:
//  ID          – primary key identifier of the user.
//  Email       – unique email address.
//  DisplayName – name shown in attendee and audit listings.
//  Role        – role name (ATTENDEE, ORGANISER or ADMIN).
//  IsActive    – whether the account is active.
//  CreatedAt   – timestamp of creation.
type User struct {
	ID          uint64    // users.id
	Email       string    // users.email
	DisplayName string    // users.display_name
	Role        string    // users.role
	IsActive    bool      // users.is_active
	CreatedAt   time.Time // users.created_at
}
