package domain

import "time"

// Role determines what a user may do.
type Role string

const (
	RoleCitizen  Role = "citizen"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// User is anyone who can sign in: citizens file tickets, employees work them
// and admins oversee both. Only employees carry a Department.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Department   *Category
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
