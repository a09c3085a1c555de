package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/creator-marketplace/internal/interface/http"
)

// UserModule wires account handlers into routes.
// Public: POST /api/register, POST /api/login, POST /api/refresh
// Protected: POST /api/logout, GET /api/me
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rg.POST("/register", publicLimiter(), m.Handler.Register)
	rg.POST("/login", publicLimiter(), m.Handler.Login)
	rg.POST("/refresh", publicLimiter(), m.Handler.Refresh)

	auth := protected(rg)
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/me", m.Handler.Me)
	}
}
