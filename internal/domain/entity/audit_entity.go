package entity

import "time"

type AuditLog struct {
	ID        string
	UserID    string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
	CreatedAt time.Time
}
