package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/creator-marketplace/internal/domain/repository"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/metrics"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/search"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/money"
	"github.com/oksasatya/creator-marketplace/pkg/saga"
	"github.com/oksasatya/creator-marketplace/pkg/sanitize"
	"github.com/oksasatya/creator-marketplace/pkg/upload"
)

type ListingService struct {
	Listings repo.ListingRepository
	Photos   repo.ListingPhotoRepository
	Creators repo.CreatorRepository
	Users    repo.UserRepository
	Store    ObjectStore
	Sync     *ProductSync
	Index    ListingSearch
	Metrics  *metrics.Metrics
	Logger   *logrus.Logger

	Categories      entity.CategorySet
	PhotoPolicy     upload.ImagePolicy
	PriceFloorCents int64
	MaxPhotos       int
}

type CreateListingInput struct {
	Title     string
	Category  string
	Condition string
	Story     string
	Price     string
	Photos    []upload.File
}

// PhotoRejection explains why one submitted photo was not stored.
type PhotoRejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type CreateListingResult struct {
	Listing        *entity.Listing
	PhotosStored   int
	PhotosRejected []PhotoRejection
	SyncStatus     entity.SyncStatus
}

func photoPath(creatorID, listingID, ext string) string {
	return fmt.Sprintf("creators/%s/listings/%s/%s%s", creatorID, listingID, uuid.NewString(), ext)
}

// requireCreator returns the creator of a verified user.
func (s *ListingService) requireCreator(ctx context.Context, userID string) (*entity.Creator, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, dbErr("user", err)
	}
	if !u.IsVerified {
		return nil, apperror.Authorization("verify your email address before listing items")
	}
	c, err := s.Creators.GetByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.Authorization("set up your creator profile before listing items")
	}
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	return c, nil
}

func (s *ListingService) validate(in CreateListingInput) (*entity.Listing, []*upload.Image, []PhotoRejection, error) {
	fields := map[string]string{}
	l := &entity.Listing{Status: entity.ListingPending}

	var err error
	if l.Title, err = sanitize.Title(in.Title); err != nil {
		fields["title"] = err.Error()
	}
	if l.Story, err = sanitize.Story(in.Story); err != nil {
		fields["story"] = err.Error()
	}
	var ok bool
	if l.Category, ok = s.Categories.Normalize(in.Category); !ok {
		fields["category"] = "choose one of the listed categories"
	}
	if l.Condition, ok = entity.ParseCondition(in.Condition); !ok {
		fields["condition"] = "must be new, like_new or used"
	}
	if l.PriceCents, err = money.ParsePrice(in.Price, s.PriceFloorCents); err != nil {
		fields["price"] = err.Error()
	}

	var (
		images   []*upload.Image
		rejected []PhotoRejection
	)
	switch {
	case len(in.Photos) == 0:
		fields["photos"] = "at least one photo is required"
	case s.MaxPhotos > 0 && len(in.Photos) > s.MaxPhotos:
		fields["photos"] = fmt.Sprintf("at most %d photos are allowed", s.MaxPhotos)
	default:
		for _, f := range in.Photos {
			img, err := s.PhotoPolicy.Validate(f)
			if err != nil {
				rejected = append(rejected, PhotoRejection{Name: f.Name, Reason: err.Error()})
				continue
			}
			images = append(images, img)
		}
		if len(images) == 0 {
			fields["photos"] = "none of the photos is a valid jpeg, png or webp image"
		}
	}

	if len(fields) > 0 {
		return nil, nil, rejected, apperror.ValidationFields(fields)
	}
	return l, images, rejected, nil
}

// Create submits a listing for approval.
//
// The listing row and its photos are written as a saga: if no photo can be
// stored the row is removed again. Commerce sync happens afterwards and never
// fails the request.
func (s *ListingService) Create(ctx context.Context, actor Actor, in CreateListingInput) (*CreateListingResult, error) {
	c, err := s.requireCreator(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	l, images, rejected, err := s.validate(in)
	if err != nil {
		s.Metrics.ListingSubmitted("invalid")
		return nil, err
	}
	l.CreatorID = c.ID
	l.SyncStatus = entity.SyncDisabled
	if s.Sync.Enabled() {
		l.SyncStatus = entity.SyncPending
	}

	var stored []entity.ListingPhoto
	err = saga.Run(ctx, s.Logger,
		saga.Step{
			Name:   "insert listing",
			Action: func(ctx context.Context) error { return s.Listings.Create(ctx, l) },
			Compensate: func(ctx context.Context) error {
				return s.Listings.Delete(ctx, l.ID)
			},
		},
		saga.Step{
			Name: "upload photos",
			Action: func(ctx context.Context) error {
				stored, rejected = s.storePhotos(ctx, l, images, rejected)
				if len(stored) == 0 {
					return ErrNoPhotosStored
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				s.removePhotos(ctx, l.ID, stored)
				return nil
			},
		},
	)
	if err != nil {
		s.Metrics.ListingSubmitted("rolled_back")
		if errors.Is(err, ErrNoPhotosStored) {
			return nil, apperror.Upstream("photo upload", err)
		}
		return nil, apperror.Upstream("create listing", err)
	}
	l.Photos = stored

	sync := s.Sync.Create(ctx, l, c)
	l.SyncStatus = sync
	s.Metrics.ListingSubmitted("created")

	return &CreateListingResult{
		Listing:        l,
		PhotosStored:   len(stored),
		PhotosRejected: rejected,
		SyncStatus:     sync,
	}, nil
}

// storePhotos uploads each image and records a row for it. Individual
// failures are logged and reported; an object whose row cannot be written is
// removed again.
func (s *ListingService) storePhotos(ctx context.Context, l *entity.Listing, images []*upload.Image, rejected []PhotoRejection) ([]entity.ListingPhoto, []PhotoRejection) {
	stored := make([]entity.ListingPhoto, 0, len(images))
	for _, img := range images {
		log := s.log().WithFields(logrus.Fields{"listing_id": l.ID, "photo": img.Name})
		path := photoPath(l.CreatorID, l.ID, img.Ext)
		url, err := s.Store.Put(ctx, path, img.ContentType, img.Reader())
		if err != nil {
			log.WithError(err).Warn("photo upload failed")
			rejected = append(rejected, PhotoRejection{Name: img.Name, Reason: "upload failed"})
			continue
		}
		ph := entity.ListingPhoto{
			ListingID:   l.ID,
			StoragePath: path,
			URL:         url,
			ContentType: img.ContentType,
			Width:       img.Width,
			Height:      img.Height,
			Position:    len(stored),
		}
		if err := s.Photos.Create(ctx, &ph); err != nil {
			log.WithError(err).Warn("record photo failed")
			s.deleteObject(context.WithoutCancel(ctx), path)
			rejected = append(rejected, PhotoRejection{Name: img.Name, Reason: "upload failed"})
			continue
		}
		stored = append(stored, ph)
	}
	return stored, rejected
}

func (s *ListingService) removePhotos(ctx context.Context, listingID string, photos []entity.ListingPhoto) {
	if err := s.Photos.DeleteByListing(ctx, listingID); err != nil {
		s.log().WithError(err).WithField("listing_id", listingID).Warn("delete photo rows failed")
	}
	for _, ph := range photos {
		s.deleteObject(ctx, ph.StoragePath)
	}
}

func (s *ListingService) deleteObject(ctx context.Context, path string) {
	if err := s.Store.Delete(ctx, path); err != nil {
		s.log().WithError(err).WithField("path", path).Warn("delete object failed")
	}
}

func (s *ListingService) log() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.StandardLogger()
}

// Get returns an active listing to anyone; other states only to the owner or an admin.
func (s *ListingService) Get(ctx context.Context, id string, viewer *Actor) (*entity.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound("listing")
	}
	l, err := s.Listings.GetByID(ctx, id)
	if err != nil {
		return nil, dbErr("listing", err)
	}
	if l.Status == entity.ListingActive {
		return l, nil
	}
	if viewer != nil {
		if viewer.IsAdmin() {
			return l, nil
		}
		c, err := s.Creators.GetByID(ctx, l.CreatorID)
		if err == nil && c.UserID == viewer.UserID {
			return l, nil
		}
	}
	return nil, apperror.NotFound("listing")
}

// ListMine lists the caller's listings, optionally filtered by status.
func (s *ListingService) ListMine(ctx context.Context, userID string, status entity.ListingStatus) ([]entity.Listing, error) {
	c, err := s.Creators.GetByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return []entity.Listing{}, nil
	}
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	out, err := s.Listings.ListByCreator(ctx, c.ID, status)
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	return out, nil
}

// Delete removes a listing that has not gone live. Photos and the commerce
// product are cleaned up best-effort.
func (s *ListingService) Delete(ctx context.Context, id string, actor Actor) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NotFound("listing")
	}
	l, err := s.Listings.GetByID(ctx, id)
	if err != nil {
		return dbErr("listing", err)
	}
	c, err := s.Creators.GetByID(ctx, l.CreatorID)
	if err != nil {
		return dbErr("creator", err)
	}
	if c.UserID != actor.UserID {
		return apperror.Authorization("you can only delete your own listings")
	}
	if l.Status != entity.ListingPending && l.Status != entity.ListingRejected {
		return apperror.Conflict("only pending or rejected listings can be deleted")
	}
	if err := s.Listings.Delete(ctx, l.ID); err != nil {
		return dbErr("listing", err)
	}

	cleanup := context.WithoutCancel(ctx)
	for _, ph := range l.Photos {
		s.deleteObject(cleanup, ph.StoragePath)
	}
	s.Sync.Remove(cleanup, l)
	return nil
}

// Search queries the listings index; only approved listings are indexed.
func (s *ListingService) Search(ctx context.Context, q string, size int) ([]search.ListingDocument, error) {
	if s.Index == nil {
		return []search.ListingDocument{}, nil
	}
	q, _ = sanitize.PlainText(q, 200)
	out, err := s.Index.Search(ctx, q, size)
	if err != nil {
		return nil, apperror.Upstream("search", err)
	}
	return out, nil
}
