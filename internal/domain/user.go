package domain

import "time"

// User is the domain model for everyone who can authenticate: customers,
// technicians, managers and the admin. Role membership lives in the
// user_roles table and is carried here as a nullable snapshot.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         *Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user currently holds the given role.
func (u *User) HasRole(role Role) bool {
	return u != nil && u.Role != nil && *u.Role == role
}
