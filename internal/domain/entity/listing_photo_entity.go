package entity

import "time"

type ListingPhoto struct {
	ID          string
	ListingID   string
	StoragePath string
	URL         string
	ContentType string
	Width       int
	Height      int
	Position    int
	CreatedAt   time.Time
}
