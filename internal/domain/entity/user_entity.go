package entity

import (
	"time"
)

// User is an account holder. Passwords are stored as bcrypt hashes.
type User struct {
	ID         string
	Email      string
	Password   string
	Name       string
	AvatarURL  string
	IsVerified bool
	Roles      []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}
