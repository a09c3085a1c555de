package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/creator-marketplace/internal/interface/http"
)

// CreatorModule serves profile settings, payout settings and public storefronts.
type CreatorModule struct {
	Handler *handlers.CreatorHandler
	Payouts *handlers.PayoutHandler
}

func NewCreatorModule(h *handlers.CreatorHandler, payouts *handlers.PayoutHandler) *CreatorModule {
	return &CreatorModule{Handler: h, Payouts: payouts}
}

func (m *CreatorModule) Register(rg *gin.RouterGroup) {
	rg.GET("/storefronts/:username", publicLimiter(), m.Handler.Storefront)

	auth := protected(rg)
	{
		auth.GET("/creators/me", m.Handler.GetMe)
		auth.PUT("/creators/me", m.Handler.UpdateMe)
		auth.POST("/creators/me/social-links", m.Handler.AddSocialLink)
		auth.DELETE("/creators/me/social-links/:platform", m.Handler.RemoveSocialLink)
		auth.PUT("/creators/me/payout-settings", m.Payouts.UpdateSettings)
		auth.GET("/payouts/mine", m.Payouts.Mine)
	}
}
