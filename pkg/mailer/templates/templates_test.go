package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/creator-marketplace/config"
)

var cfg = &config.Config{AppName: "creator-marketplace", CompanyName: "Makers Row", SupportURL: "https://help.example.com"}

func TestRenderUniversalPerType(t *testing.T) {
	tests := []struct {
		typ     string
		opts    []Option
		subject string
		text    []string
	}{
		{VerifyEmail, []Option{WithAction("https://app.example.com/verify?token=abc", "Verify email"), WithExpiresIn(time.Hour)}, "Verify your email address", []string{"Verify email: https://app.example.com/verify?token=abc", "expires at"}},
		{ResetPassword, []Option{WithAction("https://app.example.com/reset?token=abc", "Reset password")}, "Reset your password", []string{"reset your password"}},
		{ListingApproved, []Option{WithListing("l-1", "Blue Vase")}, "Your listing is live", []string{`"Blue Vase" has been approved`}},
		{ListingRejected, []Option{WithListing("l-1", "Blue Vase"), WithReason("Photos are blurry")}, "Your listing was not approved", []string{"Reason: Photos are blurry"}},
		{SyncIntervention, []Option{WithListing("l-1", "Blue Vase"), WithDetail("commerce api: 503")}, "Action needed: listing sync failed", []string{"(l-1)", "Details: commerce api: 503"}},
		{PayoutSent, []Option{WithPayout("125.50", "PP-1")}, "Your payout is on its way", []string{"$125.50", "Reference: PP-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			data := Data(cfg, tt.typ, "Jane", "jane@example.com", tt.opts...)
			subject, text, html, err := RenderUniversal(data)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, subject)
			for _, want := range tt.text {
				assert.Contains(t, text, want)
			}
			assert.Contains(t, text, "Hi Jane,")
			assert.Contains(t, html, "jane@example.com")
			assert.NotContains(t, text, "<no value>")
		})
	}
}

func TestHTMLEscapesUserContent(t *testing.T) {
	data := Data(cfg, ListingRejected, "Jane", "jane@example.com", WithListing("l-1", `<script>alert(1)</script>`))
	_, _, html, err := RenderUniversal(data)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestSubjectUnknownType(t *testing.T) {
	assert.Equal(t, "Notification", Subject(map[string]any{"Type": "something"}))
}
