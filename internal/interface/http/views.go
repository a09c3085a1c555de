package handlers

import (
	"time"

	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	"github.com/oksasatya/creator-marketplace/pkg/money"
)

type userView struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	IsVerified bool      `json:"is_verified"`
	Roles      []string  `json:"roles"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUserView(u *entity.User) userView {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, AvatarURL: u.AvatarURL, IsVerified: u.IsVerified, Roles: roles, CreatedAt: u.CreatedAt}
}

type creatorView struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	Bio            string `json:"bio"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	PayPalEmail    string `json:"paypal_email,omitempty"`
	PayPalVerified bool   `json:"paypal_verified"`
}

func toCreatorView(c *entity.Creator) *creatorView {
	if c == nil {
		return nil
	}
	return &creatorView{
		ID:             c.ID,
		Username:       c.Username,
		DisplayName:    c.DisplayName,
		Bio:            c.Bio,
		AvatarURL:      c.AvatarURL,
		PayPalEmail:    c.PayPalEmail,
		PayPalVerified: c.PayPalVerified(),
	}
}

type linkView struct {
	Platform   string     `json:"platform"`
	Handle     string     `json:"handle,omitempty"`
	ProfileURL string     `json:"profile_url"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func toLinkView(v entity.CreatorVerification) linkView {
	return linkView{Platform: v.Platform, Handle: v.Handle, ProfileURL: v.ProfileURL, Verified: v.Verified, VerifiedAt: v.VerifiedAt}
}

func toLinkViews(in []entity.CreatorVerification) []linkView {
	out := make([]linkView, 0, len(in))
	for _, v := range in {
		out = append(out, toLinkView(v))
	}
	return out
}

type photoView struct {
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Position int    `json:"position"`
}

type listingView struct {
	ID              string      `json:"id"`
	CreatorID       string      `json:"creator_id"`
	Title           string      `json:"title"`
	Category        string      `json:"category"`
	Condition       string      `json:"condition"`
	Story           string      `json:"story"`
	Price           string      `json:"price"`
	PriceCents      int64       `json:"price_cents"`
	Status          string      `json:"status"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	SyncStatus      string      `json:"sync_status,omitempty"`
	Photos          []photoView `json:"photos"`
	CreatedAt       time.Time   `json:"created_at"`
	ApprovedAt      *time.Time  `json:"approved_at,omitempty"`
}

// toListingView renders a listing; owner-only fields are dropped for the public.
func toListingView(l *entity.Listing, private bool) listingView {
	v := listingView{
		ID:         l.ID,
		CreatorID:  l.CreatorID,
		Title:      l.Title,
		Category:   l.Category,
		Condition:  string(l.Condition),
		Story:      l.Story,
		Price:      money.FormatCents(l.PriceCents),
		PriceCents: l.PriceCents,
		Status:     string(l.Status),
		Photos:     make([]photoView, 0, len(l.Photos)),
		CreatedAt:  l.CreatedAt,
		ApprovedAt: l.ApprovedAt,
	}
	if private {
		v.RejectionReason = l.RejectionReason
		v.SyncStatus = string(l.SyncStatus)
	}
	for _, p := range l.Photos {
		v.Photos = append(v.Photos, photoView{URL: p.URL, Width: p.Width, Height: p.Height, Position: p.Position})
	}
	return v
}

func toListingViews(in []entity.Listing, private bool) []listingView {
	out := make([]listingView, 0, len(in))
	for i := range in {
		out = append(out, toListingView(&in[i], private))
	}
	return out
}

type createListingView struct {
	Listing        listingView                  `json:"listing"`
	PhotosStored   int                          `json:"photos_stored"`
	PhotosRejected []application.PhotoRejection `json:"photos_rejected"`
	SyncStatus     string                       `json:"sync_status"`
}

type interventionView struct {
	ID                string     `json:"id"`
	ListingID         string     `json:"listing_id"`
	ExternalProductID string     `json:"external_product_id,omitempty"`
	Reason            string     `json:"reason"`
	Detail            string     `json:"detail"`
	Status            string     `json:"status"`
	Attempts          int        `json:"attempts"`
	CreatedAt         time.Time  `json:"created_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

func toInterventionViews(in []entity.SyncIntervention) []interventionView {
	out := make([]interventionView, 0, len(in))
	for _, x := range in {
		out = append(out, interventionView{
			ID: x.ID, ListingID: x.ListingID, ExternalProductID: x.ExternalProductID,
			Reason: x.Reason, Detail: x.Detail, Status: string(x.Status), Attempts: x.Attempts,
			CreatedAt: x.CreatedAt, ResolvedAt: x.ResolvedAt,
		})
	}
	return out
}

type payoutView struct {
	ID          string     `json:"id"`
	CreatorID   string     `json:"creator_id"`
	Amount      string     `json:"amount"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	PayPalEmail string     `json:"paypal_email"`
	Reference   string     `json:"reference,omitempty"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

func toPayoutView(p *entity.Payout) payoutView {
	return payoutView{
		ID: p.ID, CreatorID: p.CreatorID, Amount: money.FormatCents(p.AmountCents), AmountCents: p.AmountCents,
		Currency: p.Currency, Status: string(p.Status), PayPalEmail: p.PayPalEmail, Reference: p.Reference,
		Note: p.Note, CreatedAt: p.CreatedAt, PaidAt: p.PaidAt,
	}
}

func toPayoutViews(in []entity.Payout) []payoutView {
	out := make([]payoutView, 0, len(in))
	for i := range in {
		out = append(out, toPayoutView(&in[i]))
	}
	return out
}
