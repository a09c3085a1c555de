package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/creator-marketplace/internal/container"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	handlers "github.com/oksasatya/creator-marketplace/internal/interface/http"
	"github.com/oksasatya/creator-marketplace/internal/interface/middleware"
)

type AdminModule struct {
	Handler *handlers.AdminHandler
}

func NewAdminModule(h *handlers.AdminHandler) *AdminModule {
	return &AdminModule{Handler: h}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := protected(rg).Group("/admin")
	admin.Use(middleware.RequireRole(entity.RoleAdmin, container.GetResponder()))
	{
		admin.GET("/listings/pending", m.Handler.PendingListings)
		admin.POST("/listings/:id/approve", m.Handler.Approve)
		admin.POST("/listings/:id/reject", m.Handler.Reject)

		admin.GET("/interventions", m.Handler.Interventions)
		admin.POST("/interventions/:id/retry", m.Handler.RetryIntervention)
		admin.POST("/interventions/:id/resolve", m.Handler.ResolveIntervention)

		admin.GET("/payouts", m.Handler.PendingPayouts)
		admin.POST("/payouts", m.Handler.CreatePayout)
		admin.POST("/payouts/:id/mark-paid", m.Handler.MarkPaid)
	}
}
