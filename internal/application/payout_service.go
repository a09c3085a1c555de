package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/config"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/creator-marketplace/internal/domain/repository"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/paypal"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/mailer"
	"github.com/oksasatya/creator-marketplace/pkg/mailer/templates"
	"github.com/oksasatya/creator-marketplace/pkg/money"
	"github.com/oksasatya/creator-marketplace/pkg/sanitize"
)

const payoutCurrency = "USD"

var errPayPalNotVerified = apperror.Validation("paypal_email", "PayPal account could not be verified")

type PayoutService struct {
	Payouts  repo.PayoutRepository
	Creators repo.CreatorRepository
	Users    repo.UserRepository
	Verifier AddressVerifier
	Audit    repo.AuditRepository
	Mail     EmailQueue
	Config   *config.Config
	Logger   *logrus.Logger
}

type PayoutSettingsInput struct {
	Email  string
	Street string
	Zip    string
}

// UpdatePayoutSettings stores a PayPal email once PayPal confirms the
// account's address.
func (s *PayoutService) UpdatePayoutSettings(ctx context.Context, userID string, in PayoutSettingsInput) (*entity.Creator, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	street, okStreet := sanitize.PlainText(in.Street, 200)
	zip, okZip := sanitize.PlainText(in.Zip, 20)
	fields := map[string]string{}
	if email == "" {
		fields["paypal_email"] = "is required"
	}
	if street == "" || !okStreet {
		fields["street"] = "is required and must be at most 200 characters"
	}
	if zip == "" || !okZip {
		fields["zip"] = "is required and must be at most 20 characters"
	}
	if len(fields) > 0 {
		return nil, apperror.ValidationFields(fields)
	}

	c, err := s.Creators.GetByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.Authorization("set up your creator profile first")
	}
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	if s.Verifier == nil {
		return nil, apperror.Upstream("paypal verify", ErrPayPalUnavailable)
	}

	res, err := s.Verifier.Verify(ctx, email, street, zip)
	switch {
	case errors.Is(err, paypal.ErrRejected):
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("creator_id", c.ID).Info("paypal address verify rejected")
		}
		return nil, errPayPalNotVerified
	case err != nil:
		return nil, apperror.Upstream("paypal verify", errors.Join(ErrPayPalUnavailable, err))
	case !res.Confirmed:
		return nil, errPayPalNotVerified
	}

	now := time.Now()
	if err := s.Creators.SetPayPal(ctx, c.ID, email, now); err != nil {
		return nil, dbErr("creator profile", err)
	}
	c.PayPalEmail, c.PayPalVerifiedAt = email, &now
	return c, nil
}

func (s *PayoutService) ListMine(ctx context.Context, userID string) ([]entity.Payout, error) {
	c, err := s.Creators.GetByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return []entity.Payout{}, nil
	}
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	out, err := s.Payouts.ListByCreator(ctx, c.ID)
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	return out, nil
}

type CreatePayoutInput struct {
	CreatorID string
	Amount    string
	Note      string
}

// Create records a pending payout to the creator's verified PayPal account.
func (s *PayoutService) Create(ctx context.Context, admin Actor, in CreatePayoutInput) (*entity.Payout, error) {
	cents, err := money.ParsePrice(in.Amount, 1)
	if err != nil {
		return nil, apperror.Validation("amount", err.Error())
	}
	note, ok := sanitize.PlainText(in.Note, 500)
	if !ok {
		return nil, apperror.Validation("note", "must be at most 500 characters")
	}
	if _, err := uuid.Parse(in.CreatorID); err != nil {
		return nil, apperror.NotFound("creator")
	}
	c, err := s.Creators.GetByID(ctx, in.CreatorID)
	if err != nil {
		return nil, dbErr("creator", err)
	}
	if !c.PayPalVerified() {
		return nil, apperror.Conflict("creator has no verified PayPal account")
	}
	p := &entity.Payout{
		CreatorID:   c.ID,
		AmountCents: cents,
		Currency:    payoutCurrency,
		Status:      entity.PayoutPending,
		PayPalEmail: c.PayPalEmail,
		Note:        note,
	}
	if err := s.Payouts.Create(ctx, p); err != nil {
		return nil, apperror.Upstream("database", err)
	}
	writeAudit(ctx, s.Audit, s.Logger, admin, "payout.create", map[string]any{
		"payout_id":    p.ID,
		"creator_id":   c.ID,
		"amount_cents": cents,
	})
	return p, nil
}

func (s *PayoutService) Pending(ctx context.Context, limit, offset int) ([]entity.Payout, error) {
	limit, offset = clampPage(limit, offset)
	out, err := s.Payouts.ListByStatus(ctx, entity.PayoutPending, limit, offset)
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	return out, nil
}

// MarkPaid records the PayPal transaction reference of a sent payout.
func (s *PayoutService) MarkPaid(ctx context.Context, admin Actor, id, reference string) (*entity.Payout, error) {
	ref, ok := sanitize.PlainText(reference, 100)
	if ref == "" || !ok {
		return nil, apperror.Validation("reference", "is required and must be at most 100 characters")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound("payout")
	}
	err := s.Payouts.MarkPaid(ctx, id, ref, time.Now())
	if errors.Is(err, repo.ErrConflict) {
		return nil, apperror.Conflict("payout is not pending")
	}
	if err != nil {
		return nil, dbErr("payout", err)
	}
	p, err := s.Payouts.GetByID(ctx, id)
	if err != nil {
		return nil, dbErr("payout", err)
	}
	writeAudit(ctx, s.Audit, s.Logger, admin, "payout.mark_paid", map[string]any{"payout_id": id, "reference": ref})
	s.notifyPaid(context.WithoutCancel(ctx), p)
	return p, nil
}

func (s *PayoutService) notifyPaid(ctx context.Context, p *entity.Payout) {
	if s.Config == nil {
		return
	}
	c, err := s.Creators.GetByID(ctx, p.CreatorID)
	if err != nil {
		return
	}
	u, err := s.Users.GetByID(ctx, c.UserID)
	if err != nil {
		return
	}
	enqueue(ctx, s.Mail, s.Logger, mailer.EmailJob{
		To:       u.Email,
		Template: templates.PayoutSent,
		Data: templates.Data(s.Config, templates.PayoutSent, u.Name, u.Email,
			templates.WithPayout(money.FormatCents(p.AmountCents)+" "+p.Currency, p.Reference)),
	})
}
