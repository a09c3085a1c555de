package application

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/creator-marketplace/internal/domain/repository"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/commerce"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/paypal"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/search"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/mailer"
)

// ObjectStore stores uploaded files and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, path, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

// ProductCatalog mirrors listings into the commerce platform.
type ProductCatalog interface {
	CreateProduct(ctx context.Context, p commerce.Product) (string, error)
	SetProductStatus(ctx context.Context, productID, status string) error
	DeleteProduct(ctx context.Context, productID string) error
}

type ListingSearch interface {
	Index(ctx context.Context, doc search.ListingDocument) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]search.ListingDocument, error)
}

type AddressVerifier interface {
	Verify(ctx context.Context, email, street, zip string) (paypal.Result, error)
}

type EmailQueue interface {
	Enqueue(ctx context.Context, job mailer.EmailJob) error
}

// Errors whose message may be relayed to clients even though they surface
// as upstream failures.
var (
	ErrNoPhotosStored     = errors.New("none of the photos could be stored, please try again")
	ErrPayPalUnavailable  = errors.New("PayPal verification is unavailable right now, please try again later")
	ErrProviderRejected   = errors.New("the platform did not confirm your account, please try again")
	ErrMailQueueDown      = errors.New("we could not send the email right now, please try again later")
	ErrStorageUnavailable = errors.New("file storage is unavailable right now, please try again later")
)

// Relayable is the whitelist passed to the HTTP responder.
func Relayable() []error {
	return []error{ErrNoPhotosStored, ErrPayPalUnavailable, ErrProviderRejected, ErrMailQueueDown, ErrStorageUnavailable}
}

// Actor is the authenticated caller as seen by services.
type Actor struct {
	UserID    string
	SessionID string
	Roles     []string
	IP        string
	UserAgent string
}

func (a Actor) IsAdmin() bool {
	for _, r := range a.Roles {
		if r == entity.RoleAdmin {
			return true
		}
	}
	return false
}

// dbErr classifies a repository error.
func dbErr(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return apperror.NotFound(what)
	case errors.Is(err, repo.ErrConflict):
		return apperror.Conflict(what + " already exists")
	default:
		return apperror.Upstream("database", err)
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// enqueue sends a notification job; failures are logged and swallowed.
func enqueue(ctx context.Context, q EmailQueue, logger *logrus.Logger, job mailer.EmailJob) {
	if q == nil || job.To == "" {
		return
	}
	if err := q.Enqueue(ctx, job); err != nil && logger != nil {
		logger.WithError(err).WithField("template", job.Template).Warn("enqueue email failed")
	}
}

// writeAudit records an admin action; a failed write is logged only.
func writeAudit(ctx context.Context, audit repo.AuditRepository, logger *logrus.Logger, actor Actor, action string, meta map[string]any) {
	if audit == nil {
		return
	}
	err := audit.Insert(context.WithoutCancel(ctx), &entity.AuditLog{
		UserID:    actor.UserID,
		Action:    action,
		IP:        actor.IP,
		UserAgent: actor.UserAgent,
		Metadata:  meta,
	})
	if err != nil && logger != nil {
		logger.WithError(err).WithField("action", action).Error("write audit log failed")
	}
}
