package application

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/config"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/creator-marketplace/internal/domain/repository"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/commerce"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/metrics"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/mailer"
	"github.com/oksasatya/creator-marketplace/pkg/mailer/templates"
)

const defaultLinkAttempts = 3

// ProductSync keeps listings and their commerce products in step. Failures
// never propagate to the listing flow: they open a sync intervention for an
// admin instead.
type ProductSync struct {
	Listings      repo.ListingRepository
	Creators      repo.CreatorRepository
	Interventions repo.InterventionRepository
	Catalog       ProductCatalog
	Mail          EmailQueue
	Config        *config.Config
	Metrics       *metrics.Metrics
	Logger        *logrus.Logger

	// LinkAttempts bounds the tries to store the external product id.
	LinkAttempts uint
	// NewBackOff builds the retry schedule for storing the external id.
	NewBackOff func() backoff.BackOff
}

// Enabled reports whether a commerce platform is configured.
func (p *ProductSync) Enabled() bool { return p != nil && p.Catalog != nil }

func (p *ProductSync) backOff() backoff.BackOff {
	if p.NewBackOff != nil {
		return p.NewBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 2 * time.Second
	return b
}

func productFor(l *entity.Listing, c *entity.Creator) commerce.Product {
	urls := make([]string, 0, len(l.Photos))
	for _, ph := range l.Photos {
		urls = append(urls, ph.URL)
	}
	p := commerce.Product{
		Title:       l.Title,
		BodyHTML:    l.Story,
		ProductType: l.Category,
		PriceCents:  l.PriceCents,
		ImageURLs:   urls,
		Tags:        []string{"listing:" + l.ID},
	}
	if c != nil {
		p.Vendor = c.DisplayName
		p.Tags = append(p.Tags, "creator:"+c.Username)
	}
	return p
}

// Create creates the commerce product for a new listing and links its id.
// It returns the resulting sync status.
func (p *ProductSync) Create(ctx context.Context, l *entity.Listing, c *entity.Creator) entity.SyncStatus {
	if !p.Enabled() {
		return entity.SyncDisabled
	}
	extID, err := p.createProduct(ctx, productFor(l, c))
	if err != nil {
		p.Metrics.CommerceSynced("create_failed")
		p.fail(ctx, l, "", entity.ReasonCreateFailed, err)
		return entity.SyncNeedsManual
	}
	if err := p.link(ctx, l.ID, extID); err != nil {
		p.Metrics.CommerceSynced("link_failed")
		p.fail(ctx, l, extID, entity.ReasonLinkFailed, err)
		return entity.SyncNeedsManual
	}
	l.ExternalProductID = extID
	p.Metrics.CommerceSynced("synced")
	return entity.SyncSynced
}

func (p *ProductSync) attempts() uint {
	if p.LinkAttempts == 0 {
		return defaultLinkAttempts
	}
	return p.LinkAttempts
}

// createProduct retries transient platform failures; a 4xx answer is final.
func (p *ProductSync) createProduct(ctx context.Context, prod commerce.Product) (string, error) {
	return backoff.Retry(ctx, func() (string, error) {
		id, err := p.Catalog.CreateProduct(ctx, prod)
		if commerce.IsPermanent(err) {
			return "", backoff.Permanent(err)
		}
		return id, err
	}, backoff.WithBackOff(p.backOff()), backoff.WithMaxTries(p.attempts()))
}

// link stores the external id on the listing with bounded exponential backoff.
func (p *ProductSync) link(ctx context.Context, listingID, extID string) error {
	try := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		try++
		err := p.Listings.SetExternalProduct(ctx, listingID, extID, entity.SyncSynced)
		if err != nil && p.Logger != nil {
			p.Logger.WithError(err).WithFields(logrus.Fields{
				"listing_id": listingID,
				"attempt":    try,
			}).Warn("store external product id failed")
		}
		return struct{}{}, err
	}, backoff.WithBackOff(p.backOff()), backoff.WithMaxTries(p.attempts()))
	return err
}

// SetStatus mirrors a moderation decision onto the product.
func (p *ProductSync) SetStatus(ctx context.Context, l *entity.Listing, status string) {
	if !p.Enabled() || l.ExternalProductID == "" {
		return
	}
	if err := p.Catalog.SetProductStatus(ctx, l.ExternalProductID, status); err != nil {
		p.Metrics.CommerceSynced("status_failed")
		p.fail(ctx, l, l.ExternalProductID, entity.ReasonStatusFailed, err)
		return
	}
	p.Metrics.CommerceSynced("status_synced")
}

// Remove deletes the product of a listing that no longer exists; failures are only logged.
func (p *ProductSync) Remove(ctx context.Context, l *entity.Listing) {
	if !p.Enabled() || l.ExternalProductID == "" {
		return
	}
	if err := p.Catalog.DeleteProduct(ctx, l.ExternalProductID); err != nil && p.Logger != nil {
		p.Logger.WithError(err).WithField("listing_id", l.ID).Warn("delete commerce product failed")
	}
}

func productStatus(s entity.ListingStatus) string {
	switch s {
	case entity.ListingActive:
		return commerce.StatusActive
	case entity.ListingPending:
		return commerce.StatusDraft
	default:
		return commerce.StatusArchived
	}
}

// Retry re-runs the step an intervention recorded as failed. On success the
// intervention is resolved; otherwise the attempt is counted.
func (p *ProductSync) Retry(ctx context.Context, in *entity.SyncIntervention) error {
	if !p.Enabled() {
		return apperror.Conflict("commerce sync is not configured")
	}
	l, err := p.Listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return dbErr("listing", err)
	}

	var stepErr error
	switch in.Reason {
	case entity.ReasonCreateFailed:
		extID := l.ExternalProductID
		if extID == "" {
			c, err := p.Creators.GetByID(ctx, l.CreatorID)
			if err != nil {
				return dbErr("creator", err)
			}
			if extID, stepErr = p.createProduct(ctx, productFor(l, c)); stepErr != nil {
				break
			}
			if err := p.link(ctx, l.ID, extID); err != nil {
				// the product now exists: hand over to a link intervention that knows its id
				p.Metrics.CommerceSynced("retry_failed")
				p.fail(ctx, l, extID, entity.ReasonLinkFailed, err)
				if rErr := p.Interventions.Resolve(ctx, in.ID, time.Now()); rErr != nil {
					return dbErr("intervention", rErr)
				}
				return apperror.Upstream("commerce sync", err)
			}
		}
		stepErr = p.publish(ctx, extID, l.Status)
	case entity.ReasonLinkFailed:
		if stepErr = p.link(ctx, l.ID, in.ExternalProductID); stepErr == nil {
			stepErr = p.publish(ctx, in.ExternalProductID, l.Status)
		}
	case entity.ReasonStatusFailed:
		stepErr = p.Catalog.SetProductStatus(ctx, in.ExternalProductID, productStatus(l.Status))
	default:
		return apperror.Validation("reason", fmt.Sprintf("unknown intervention reason %q", in.Reason))
	}

	if stepErr != nil {
		p.Metrics.CommerceSynced("retry_failed")
		if err := p.Interventions.RecordAttempt(ctx, in.ID, stepErr.Error()); err != nil && p.Logger != nil {
			p.Logger.WithError(err).WithField("intervention_id", in.ID).Error("record intervention attempt failed")
		}
		return apperror.Upstream("commerce sync", stepErr)
	}
	if err := p.Interventions.Resolve(ctx, in.ID, time.Now()); err != nil {
		return dbErr("intervention", err)
	}
	p.Metrics.CommerceSynced("retry_synced")
	return nil
}

// publish brings a freshly linked product out of draft when the listing
// was moderated before the product existed.
func (p *ProductSync) publish(ctx context.Context, extID string, s entity.ListingStatus) error {
	status := productStatus(s)
	if status == commerce.StatusDraft {
		return nil
	}
	return p.Catalog.SetProductStatus(ctx, extID, status)
}

// fail marks the listing for manual sync, opens an intervention and alerts admins.
func (p *ProductSync) fail(ctx context.Context, l *entity.Listing, extID, reason string, cause error) {
	ctx = context.WithoutCancel(ctx)
	log := logrus.NewEntry(p.logger()).WithError(cause).WithFields(logrus.Fields{
		"listing_id":          l.ID,
		"external_product_id": extID,
		"reason":              reason,
	})
	log.Warn("commerce sync failed, opening intervention")

	if reason != entity.ReasonStatusFailed {
		if err := p.Listings.SetSyncStatus(ctx, l.ID, entity.SyncNeedsManual); err != nil {
			log.WithError(err).Warn("mark listing for manual sync failed")
		}
	}
	in := &entity.SyncIntervention{
		ListingID:         l.ID,
		ExternalProductID: extID,
		Reason:            reason,
		Detail:            cause.Error(),
		Status:            entity.InterventionOpen,
		Attempts:          1,
	}
	if err := p.Interventions.Create(ctx, in); err != nil {
		log.WithError(err).Error("write sync intervention failed")
		return
	}
	if p.Config == nil || p.Config.AdminAlertEmail == "" {
		return
	}
	to := p.Config.AdminAlertEmail
	enqueue(ctx, p.Mail, p.Logger, mailer.EmailJob{
		To:       to,
		Template: templates.SyncIntervention,
		Data: templates.Data(p.Config, templates.SyncIntervention, "", to,
			templates.WithListing(l.ID, l.Title),
			templates.WithReason(reason),
			templates.WithDetail(in.Detail),
			templates.WithAction(p.Config.AdminConsoleURL+"/interventions/"+in.ID, "Open intervention")),
	})
}

func (p *ProductSync) logger() *logrus.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}
