package entity

import "time"

// CreatorVerification is a social link for one platform. Verified is set only
// after an OAuth round trip proved the creator controls the account.
type CreatorVerification struct {
	ID         string
	CreatorID  string
	Platform   string
	Handle     string
	ProfileURL string
	Verified   bool
	VerifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
