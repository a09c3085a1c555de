package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/creator-marketplace/internal/interface/http"
	"github.com/oksasatya/creator-marketplace/internal/interface/middleware"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	rg.POST("/auth/verify/confirm", publicLimiter(), m.Handler.VerifyConfirm)
	rg.POST("/auth/reset/init", limiter(5, time.Minute, middleware.KeyByIPAndPath()), m.Handler.ResetInit)
	rg.POST("/auth/reset/confirm", publicLimiter(), m.Handler.ResetConfirm)

	auth := protected(rg)
	{
		auth.GET("/csrf", m.Handler.CSRFToken)
		auth.POST("/auth/verify/init", limiter(5, time.Minute, middleware.KeyByUserID()), m.Handler.VerifyInit)
	}
}
