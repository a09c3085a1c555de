package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/pkg/response"
)

type PayoutHandler struct {
	Svc *application.PayoutService
	R   *response.Responder
}

func NewPayoutHandler(svc *application.PayoutService, r *response.Responder) *PayoutHandler {
	return &PayoutHandler{Svc: svc, R: r}
}

type payoutSettingsRequest struct {
	PayPalEmail string `json:"paypal_email" binding:"required,email,max=254"`
	Street      string `json:"street" binding:"required,max=200"`
	Zip         string `json:"zip" binding:"required,max=20"`
}

// UpdateSettings PUT /api/creators/me/payout-settings
func (h *PayoutHandler) UpdateSettings(c *gin.Context) {
	var req payoutSettingsRequest
	if !bindJSON(c, h.R, &req) {
		return
	}
	cr, err := h.Svc.UpdatePayoutSettings(c.Request.Context(), actor(c).UserID, application.PayoutSettingsInput{
		Email: req.PayPalEmail, Street: req.Street, Zip: req.Zip,
	})
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toCreatorView(cr), "PayPal account verified", nil)
}

// Mine GET /api/payouts/mine
func (h *PayoutHandler) Mine(c *gin.Context) {
	out, err := h.Svc.ListMine(c.Request.Context(), actor(c).UserID)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toPayoutViews(out), "payouts", map[string]any{"count": len(out)})
}
