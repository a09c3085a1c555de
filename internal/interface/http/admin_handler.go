package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	"github.com/oksasatya/creator-marketplace/pkg/response"
)

// AdminHandler exposes moderation, sync interventions and payouts to admins.
type AdminHandler struct {
	Moderation *application.ModerationService
	Payouts    *application.PayoutService
	R          *response.Responder
}

func NewAdminHandler(mod *application.ModerationService, payouts *application.PayoutService, r *response.Responder) *AdminHandler {
	return &AdminHandler{Moderation: mod, Payouts: payouts, R: r}
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type createPayoutRequest struct {
	CreatorID string `json:"creator_id" binding:"required,uuid"`
	Amount    string `json:"amount" binding:"required"`
	Note      string `json:"note"`
}

type markPaidRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// PendingListings GET /api/admin/listings/pending
func (h *AdminHandler) PendingListings(c *gin.Context) {
	limit, offset := page(c)
	out, err := h.Moderation.Pending(c.Request.Context(), limit, offset)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toListingViews(out, true), "pending listings", map[string]any{"count": len(out)})
}

// Approve POST /api/admin/listings/:id/approve
func (h *AdminHandler) Approve(c *gin.Context) {
	l, err := h.Moderation.Approve(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toListingView(l, true), "listing approved", nil)
}

// Reject POST /api/admin/listings/:id/reject
func (h *AdminHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if !bindJSON(c, h.R, &req) {
		return
	}
	l, err := h.Moderation.Reject(c.Request.Context(), c.Param("id"), actor(c), req.Reason)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toListingView(l, true), "listing rejected", nil)
}

// Interventions GET /api/admin/interventions?status=open
func (h *AdminHandler) Interventions(c *gin.Context) {
	limit, offset := page(c)
	status := entity.InterventionStatus(c.DefaultQuery("status", string(entity.InterventionOpen)))
	out, err := h.Moderation.Interventions(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toInterventionViews(out), "sync interventions", map[string]any{"count": len(out)})
}

// RetryIntervention POST /api/admin/interventions/:id/retry
func (h *AdminHandler) RetryIntervention(c *gin.Context) {
	if err := h.Moderation.RetrySync(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"resolved": true}, "sync completed", nil)
}

// ResolveIntervention POST /api/admin/interventions/:id/resolve
func (h *AdminHandler) ResolveIntervention(c *gin.Context) {
	if err := h.Moderation.ResolveIntervention(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"resolved": true}, "intervention resolved", nil)
}

// PendingPayouts GET /api/admin/payouts
func (h *AdminHandler) PendingPayouts(c *gin.Context) {
	limit, offset := page(c)
	out, err := h.Payouts.Pending(c.Request.Context(), limit, offset)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toPayoutViews(out), "pending payouts", map[string]any{"count": len(out)})
}

// CreatePayout POST /api/admin/payouts
func (h *AdminHandler) CreatePayout(c *gin.Context) {
	var req createPayoutRequest
	if !bindJSON(c, h.R, &req) {
		return
	}
	p, err := h.Payouts.Create(c.Request.Context(), actor(c), application.CreatePayoutInput{CreatorID: req.CreatorID, Amount: req.Amount, Note: req.Note})
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toPayoutView(p), "payout recorded", nil)
}

// MarkPaid POST /api/admin/payouts/:id/mark-paid
func (h *AdminHandler) MarkPaid(c *gin.Context) {
	var req markPaidRequest
	if !bindJSON(c, h.R, &req) {
		return
	}
	p, err := h.Payouts.MarkPaid(c.Request.Context(), actor(c), c.Param("id"), req.Reference)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toPayoutView(p), "payout marked as paid", nil)
}
