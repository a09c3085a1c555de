package entity

import "time"

const (
	RoleAdmin   = "admin"
	RoleCreator = "creator"
)

// Role represents an authorization role, many-to-many with User via user_roles.
type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
