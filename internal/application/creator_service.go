package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/creator-marketplace/internal/domain/repository"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/sanitize"
	"github.com/oksasatya/creator-marketplace/pkg/upload"
)

type CreatorService struct {
	Creators      repo.CreatorRepository
	Verifications repo.VerificationRepository
	Listings      repo.ListingRepository
	Store         ObjectStore
	Platforms     *sanitize.Platforms
	AvatarPolicy  upload.ImagePolicy
	Logger        *logrus.Logger
}

// CreatorProfile is what the settings page shows. Creator is nil until the
// user saves settings for the first time.
type CreatorProfile struct {
	Creator *entity.Creator
	Links   []entity.CreatorVerification
}

type SettingsInput struct {
	DisplayName string
	Username    string
	Bio         string
	Avatar      *upload.File
}

type Storefront struct {
	Creator  *entity.Creator
	Links    []entity.CreatorVerification
	Listings []entity.Listing
}

func avatarPath(creatorID, ext string) string {
	return fmt.Sprintf("creators/%s/avatar/%s%s", creatorID, uuid.NewString(), ext)
}

// CreatorFor returns the creator profile of userID.
func (s *CreatorService) CreatorFor(ctx context.Context, userID string) (*entity.Creator, error) {
	c, err := s.Creators.GetByUserID(ctx, userID)
	if err != nil {
		return nil, dbErr("creator profile", err)
	}
	return c, nil
}

func (s *CreatorService) GetMe(ctx context.Context, userID string) (*CreatorProfile, error) {
	c, err := s.Creators.GetByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return &CreatorProfile{}, nil
	}
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	links, err := s.Verifications.ListByCreator(ctx, c.ID)
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	return &CreatorProfile{Creator: c, Links: links}, nil
}

// UpdateSettings validates and saves the profile, creating it on first use.
// A new avatar is uploaded before the row is written and removed again if
// the write fails; the replaced avatar is deleted only after success.
func (s *CreatorService) UpdateSettings(ctx context.Context, userID string, in SettingsInput) (*entity.Creator, error) {
	fields := map[string]string{}
	name, err := sanitize.Name(in.DisplayName)
	if err != nil {
		fields["display_name"] = err.Error()
	}
	username, err := sanitize.Username(in.Username)
	if err != nil {
		fields["username"] = err.Error()
	}
	bio, err := sanitize.Bio(in.Bio)
	if err != nil {
		fields["bio"] = err.Error()
	}
	var avatar *upload.Image
	if in.Avatar != nil {
		if avatar, err = s.AvatarPolicy.Validate(*in.Avatar); err != nil {
			fields["avatar"] = err.Error()
		}
	}
	if len(fields) > 0 {
		return nil, apperror.ValidationFields(fields)
	}

	c, err := s.Creators.GetByUserID(ctx, userID)
	isNew := errors.Is(err, repo.ErrNotFound)
	if err != nil && !isNew {
		return nil, apperror.Upstream("database", err)
	}
	if isNew {
		c = &entity.Creator{UserID: userID, Username: username, DisplayName: name, Bio: bio}
		if err := s.Creators.Create(ctx, c); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return nil, apperror.Validation("username", "username is already taken")
			}
			return nil, apperror.Upstream("database", err)
		}
	}

	oldPath := c.AvatarPath
	next := *c
	next.Username, next.DisplayName, next.Bio = username, name, bio
	if avatar != nil {
		path := avatarPath(c.ID, avatar.Ext)
		u, err := s.Store.Put(ctx, path, avatar.ContentType, avatar.Reader())
		if err != nil {
			return nil, apperror.Upstream("avatar upload", errors.Join(ErrStorageUnavailable, err))
		}
		next.AvatarURL, next.AvatarPath = u, path
	}

	if err := s.Creators.Update(ctx, &next); err != nil {
		if avatar != nil {
			s.deleteObject(context.WithoutCancel(ctx), next.AvatarPath)
		}
		if errors.Is(err, repo.ErrConflict) {
			return nil, apperror.Validation("username", "username is already taken")
		}
		return nil, apperror.Upstream("database", err)
	}
	if avatar != nil && oldPath != "" {
		s.deleteObject(context.WithoutCancel(ctx), oldPath)
	}
	return &next, nil
}

// deleteObject is fire-and-forget cleanup.
func (s *CreatorService) deleteObject(ctx context.Context, path string) {
	if err := s.Store.Delete(ctx, path); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("path", path).Warn("delete object failed")
	}
}

// AddSocialLink stores an unverified link after checking it against the platform allow-list.
func (s *CreatorService) AddSocialLink(ctx context.Context, userID, platform, rawURL string) (*entity.CreatorVerification, error) {
	u, err := s.Platforms.SocialURL(platform, rawURL)
	switch {
	case errors.Is(err, sanitize.ErrUnknownPlatform):
		return nil, apperror.Validation("platform", err.Error())
	case err != nil:
		return nil, apperror.Validation("url", err.Error())
	}
	c, err := s.CreatorFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	pl, _ := s.Platforms.Get(platform)
	v := &entity.CreatorVerification{CreatorID: c.ID, Platform: pl.Key, ProfileURL: u}
	if err := s.Verifications.Upsert(ctx, v); err != nil {
		return nil, apperror.Upstream("database", err)
	}
	return v, nil
}

func (s *CreatorService) RemoveSocialLink(ctx context.Context, userID, platform string) error {
	pl, ok := s.Platforms.Get(platform)
	if !ok {
		return apperror.Validation("platform", sanitize.ErrUnknownPlatform.Error())
	}
	c, err := s.CreatorFor(ctx, userID)
	if err != nil {
		return err
	}
	return dbErr("social link", s.Verifications.Delete(ctx, c.ID, pl.Key))
}

// Storefront is the public page of a creator: profile, links and active listings.
func (s *CreatorService) Storefront(ctx context.Context, username string) (*Storefront, error) {
	c, err := s.Creators.GetByUsername(ctx, username)
	if err != nil {
		return nil, dbErr("storefront", err)
	}
	links, err := s.Verifications.ListByCreator(ctx, c.ID)
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	listings, err := s.Listings.ListByCreator(ctx, c.ID, entity.ListingActive)
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	public := *c
	public.PayPalEmail, public.PayPalVerifiedAt, public.AvatarPath = "", nil, ""
	return &Storefront{Creator: &public, Links: links, Listings: listings}, nil
}
