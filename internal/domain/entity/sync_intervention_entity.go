package entity

import "time"

type InterventionStatus string

const (
	InterventionOpen     InterventionStatus = "open"
	InterventionResolved InterventionStatus = "resolved"
)

// SyncIntervention records a listing whose commerce sync needs an admin.
type SyncIntervention struct {
	ID                string
	ListingID         string
	ExternalProductID string
	Reason            string
	Detail            string
	Status            InterventionStatus
	Attempts          int
	CreatedAt         time.Time
	ResolvedAt        *time.Time
}

// Intervention reasons.
const (
	ReasonCreateFailed = "create_product_failed"
	ReasonLinkFailed   = "link_external_id_failed"
	ReasonStatusFailed = "set_product_status_failed"
)
