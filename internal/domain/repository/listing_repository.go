package repository

import (
	"context"
	"time"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
)

type ListingRepository interface {
	Create(ctx context.Context, l *entity.Listing) error
	// GetByID returns the listing with its photos.
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	ListByCreator(ctx context.Context, creatorID string, status entity.ListingStatus) ([]entity.Listing, error)
	ListByStatus(ctx context.Context, status entity.ListingStatus, limit, offset int) ([]entity.Listing, error)
	Delete(ctx context.Context, id string) error
	SetExternalProduct(ctx context.Context, id, externalID string, sync entity.SyncStatus) error
	SetSyncStatus(ctx context.Context, id string, sync entity.SyncStatus) error
	// Transition moves a listing from one status to another. It returns
	// ErrConflict when the listing is no longer in status from.
	Transition(ctx context.Context, id string, from, to entity.ListingStatus, reason string, at time.Time) error
}

type ListingPhotoRepository interface {
	Create(ctx context.Context, p *entity.ListingPhoto) error
	ListByListing(ctx context.Context, listingID string) ([]entity.ListingPhoto, error)
	DeleteByListing(ctx context.Context, listingID string) error
}
