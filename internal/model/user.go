package model

import "time"

// UserRole represents the platform role carried in a user's token
type UserRole string

const (
	UserRoleParticipant UserRole = "participant" // Default role
	UserRoleOrganizer   UserRole = "organizer"   // Can create competitions
	UserRoleAdmin       UserRole = "admin"
)

// User is a read-only view of a federation member. Accounts are managed
// by the identity provider; this service only reads them.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	RegionID  *string   `json:"region_id,omitempty"`
	Role      UserRole  `json:"role"`
	CreatedOn time.Time `json:"created_on"`
}

// CanOrganize returns true if the role may create competitions
func (r UserRole) CanOrganize() bool {
	return r == UserRoleOrganizer || r == UserRoleAdmin
}

// CanOrganize returns true if the user may create competitions
func (u *User) CanOrganize() bool {
	return u.Role.CanOrganize()
}
