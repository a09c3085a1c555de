package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/creator-marketplace/internal/interface/http"
)

// SocialModule runs the OAuth round trip that verifies a creator's handle.
// The callback is a GET the provider redirects to, so CSRF does not apply;
// the single-use state plays that role.
type SocialModule struct {
	Handler *handlers.SocialHandler
}

func NewSocialModule(h *handlers.SocialHandler) *SocialModule {
	return &SocialModule{Handler: h}
}

func (m *SocialModule) Register(rg *gin.RouterGroup) {
	auth := protected(rg)
	{
		auth.GET("/social/:platform/connect", m.Handler.Connect)
		auth.GET("/social/:platform/callback", m.Handler.Callback)
	}
}
