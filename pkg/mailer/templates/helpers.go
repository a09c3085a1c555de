package templates

import (
	"time"

	"github.com/oksasatya/creator-marketplace/config"
)

// Option pattern
type Option func(*EmailData)

func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) {
		utc := time.Now().Add(dur).UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
	}
}

func WithAction(url, text string) Option {
	return func(d *EmailData) {
		d.ActionURL = url
		d.ActionText = text
	}
}

func WithListing(id, title string) Option {
	return func(d *EmailData) {
		d.ListingID = id
		d.ListingTitle = title
	}
}

func WithReason(reason string) Option { return func(d *EmailData) { d.Reason = reason } }
func WithDetail(detail string) Option { return func(d *EmailData) { d.Detail = detail } }

func WithPayout(amount, reference string) Option {
	return func(d *EmailData) {
		d.Amount = amount
		d.Reference = reference
	}
}

// NewBaseEmailData fills branding from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          recipient,
		RecipientEmail: recipient,
		Type:           typ,
		CompanyName:    cfg.CompanyName,
		AppName:        cfg.AppName,
		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Data builds the job payload for typ.
func Data(cfg *config.Config, typ, name, recipient string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, typ, name, recipient, opts...))
}
