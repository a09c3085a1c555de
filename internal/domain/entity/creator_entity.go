package entity

import "time"

// Creator is the storefront profile attached to a user.
type Creator struct {
	ID          string
	UserID      string
	Username    string
	DisplayName string
	Bio         string
	AvatarURL   string
	// AvatarPath is the object key of AvatarURL, kept so the old file can be removed on change.
	AvatarPath       string
	PayPalEmail      string
	PayPalVerifiedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c *Creator) PayPalVerified() bool {
	return c.PayPalEmail != "" && c.PayPalVerifiedAt != nil
}
