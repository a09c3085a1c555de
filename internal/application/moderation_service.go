package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/config"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/creator-marketplace/internal/domain/repository"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/commerce"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/search"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/mailer"
	"github.com/oksasatya/creator-marketplace/pkg/mailer/templates"
	"github.com/oksasatya/creator-marketplace/pkg/sanitize"
)

const maxReasonLength = 500

// ModerationService backs the admin console.
type ModerationService struct {
	Listings         repo.ListingRepository
	Creators         repo.CreatorRepository
	Users            repo.UserRepository
	InterventionRepo repo.InterventionRepository
	Audit            repo.AuditRepository
	Sync             *ProductSync
	Index            ListingSearch
	Mail             EmailQueue
	Config           *config.Config
	Logger           *logrus.Logger
}

func (s *ModerationService) Pending(ctx context.Context, limit, offset int) ([]entity.Listing, error) {
	limit, offset = clampPage(limit, offset)
	out, err := s.Listings.ListByStatus(ctx, entity.ListingPending, limit, offset)
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	return out, nil
}

// Approve publishes a pending listing.
func (s *ModerationService) Approve(ctx context.Context, id string, admin Actor) (*entity.Listing, error) {
	if err := s.transition(ctx, id, entity.ListingActive, ""); err != nil {
		return nil, err
	}
	l, err := s.Listings.GetByID(ctx, id)
	if err != nil {
		return nil, dbErr("listing", err)
	}
	s.audit(ctx, admin, "listing.approve", map[string]any{"listing_id": id})

	after := context.WithoutCancel(ctx)
	s.Sync.SetStatus(after, l, commerce.StatusActive)
	c, user := s.owner(after, l)
	s.index(after, l, c)
	if user != nil {
		s.notify(after, user, templates.ListingApproved, templates.WithListing(l.ID, l.Title),
			templates.WithAction(s.storefrontURL(c), "View your storefront"))
	}
	return l, nil
}

// Reject declines a pending listing with a reason shown to the creator.
func (s *ModerationService) Reject(ctx context.Context, id string, admin Actor, reason string) (*entity.Listing, error) {
	reason, ok := sanitize.PlainText(reason, maxReasonLength)
	if reason == "" {
		return nil, apperror.Validation("reason", "is required")
	}
	if !ok {
		return nil, apperror.Validation("reason", "must be at most 500 characters")
	}
	if err := s.transition(ctx, id, entity.ListingRejected, reason); err != nil {
		return nil, err
	}
	l, err := s.Listings.GetByID(ctx, id)
	if err != nil {
		return nil, dbErr("listing", err)
	}
	s.audit(ctx, admin, "listing.reject", map[string]any{"listing_id": id, "reason": reason})

	after := context.WithoutCancel(ctx)
	s.Sync.SetStatus(after, l, commerce.StatusArchived)
	if s.Index != nil {
		if err := s.Index.Remove(after, l.ID); err != nil {
			s.warn(err, "remove listing from index failed", l.ID)
		}
	}
	if _, user := s.owner(after, l); user != nil {
		s.notify(after, user, templates.ListingRejected, templates.WithListing(l.ID, l.Title), templates.WithReason(reason))
	}
	return l, nil
}

func (s *ModerationService) transition(ctx context.Context, id string, to entity.ListingStatus, reason string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NotFound("listing")
	}
	err := s.Listings.Transition(ctx, id, entity.ListingPending, to, reason, time.Now())
	if errors.Is(err, repo.ErrConflict) {
		return apperror.Conflict("listing is no longer pending approval")
	}
	return dbErr("listing", err)
}

func (s *ModerationService) owner(ctx context.Context, l *entity.Listing) (*entity.Creator, *entity.User) {
	c, err := s.Creators.GetByID(ctx, l.CreatorID)
	if err != nil {
		s.warn(err, "load listing creator failed", l.ID)
		return nil, nil
	}
	u, err := s.Users.GetByID(ctx, c.UserID)
	if err != nil {
		s.warn(err, "load listing owner failed", l.ID)
		return c, nil
	}
	return c, u
}

func (s *ModerationService) index(ctx context.Context, l *entity.Listing, c *entity.Creator) {
	if s.Index == nil {
		return
	}
	doc := search.ListingDocument{
		ID:         l.ID,
		CreatorID:  l.CreatorID,
		Title:      l.Title,
		Category:   l.Category,
		Condition:  string(l.Condition),
		PriceCents: l.PriceCents,
	}
	if l.ApprovedAt != nil {
		doc.ApprovedAt = *l.ApprovedAt
	}
	if c != nil {
		doc.CreatorUsername = c.Username
	}
	if len(l.Photos) > 0 {
		doc.PhotoURL = l.Photos[0].URL
	}
	if err := s.Index.Index(ctx, doc); err != nil {
		s.warn(err, "index listing failed", l.ID)
	}
}

func (s *ModerationService) storefrontURL(c *entity.Creator) string {
	if c == nil || s.Config == nil {
		return ""
	}
	return s.Config.StorefrontURL + "/" + c.Username
}

func (s *ModerationService) notify(ctx context.Context, u *entity.User, typ string, opts ...templates.Option) {
	if s.Config == nil {
		return
	}
	enqueue(ctx, s.Mail, s.Logger, mailer.EmailJob{
		To:       u.Email,
		Template: typ,
		Data:     templates.Data(s.Config, typ, u.Name, u.Email, opts...),
	})
}

func (s *ModerationService) audit(ctx context.Context, admin Actor, action string, meta map[string]any) {
	writeAudit(ctx, s.Audit, s.Logger, admin, action, meta)
}

func (s *ModerationService) warn(err error, msg, listingID string) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithField("listing_id", listingID).Warn(msg)
	}
}

func (s *ModerationService) Interventions(ctx context.Context, status entity.InterventionStatus, limit, offset int) ([]entity.SyncIntervention, error) {
	switch status {
	case "", entity.InterventionOpen, entity.InterventionResolved:
	default:
		return nil, apperror.Validation("status", "must be open or resolved")
	}
	limit, offset = clampPage(limit, offset)
	out, err := s.InterventionRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	return out, nil
}

func (s *ModerationService) openIntervention(ctx context.Context, id string) (*entity.SyncIntervention, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound("intervention")
	}
	in, err := s.InterventionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, dbErr("intervention", err)
	}
	if in.Status != entity.InterventionOpen {
		return nil, apperror.Conflict("intervention is already resolved")
	}
	return in, nil
}

// RetrySync re-runs the failed commerce step of an open intervention.
func (s *ModerationService) RetrySync(ctx context.Context, id string, admin Actor) error {
	in, err := s.openIntervention(ctx, id)
	if err != nil {
		return err
	}
	err = s.Sync.Retry(ctx, in)
	s.audit(ctx, admin, "intervention.retry", map[string]any{"intervention_id": id, "ok": err == nil})
	return err
}

// ResolveIntervention closes an intervention an admin fixed by hand.
func (s *ModerationService) ResolveIntervention(ctx context.Context, id string, admin Actor) error {
	if _, err := s.openIntervention(ctx, id); err != nil {
		return err
	}
	if err := s.InterventionRepo.Resolve(ctx, id, time.Now()); err != nil {
		return dbErr("intervention", err)
	}
	s.audit(ctx, admin, "intervention.resolve", map[string]any{"intervention_id": id})
	return nil
}
