package entity

import "time"

type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutPaid    PayoutStatus = "paid"
	PayoutFailed  PayoutStatus = "failed"
)

type Payout struct {
	ID          string
	CreatorID   string
	AmountCents int64
	Currency    string
	Status      PayoutStatus
	PayPalEmail string
	Reference   string
	Note        string
	CreatedAt   time.Time
	PaidAt      *time.Time
}
