package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/creator-marketplace/internal/container"
	handlers "github.com/oksasatya/creator-marketplace/internal/interface/http"
	"github.com/oksasatya/creator-marketplace/internal/interface/middleware"
)

type ListingModule struct {
	Handler *handlers.ListingHandler
}

func NewListingModule(h *handlers.ListingHandler) *ListingModule {
	return &ListingModule{Handler: h}
}

func (m *ListingModule) Register(rg *gin.RouterGroup) {
	cfg := container.GetConfig()
	rg.GET("/listings/search", limiter(cfg.RateLimitMax, cfg.RateLimitWindow, middleware.KeyByIPAndPath()), m.Handler.Search)
	rg.GET("/listings/:id",
		limiter(cfg.RateLimitMax, cfg.RateLimitWindow, middleware.KeyByIPAndPath()),
		middleware.OptionalAuth(container.GetRedis(), container.GetJWT()),
		m.Handler.Get,
	)

	auth := protected(rg)
	{
		auth.POST("/listings", m.Handler.Create)
		auth.GET("/listings/mine", m.Handler.Mine)
		auth.DELETE("/listings/:id", m.Handler.Delete)
	}
}
