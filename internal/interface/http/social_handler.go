package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/pkg/response"
)

type SocialHandler struct {
	Svc *application.SocialService
	R   *response.Responder
}

func NewSocialHandler(svc *application.SocialService, r *response.Responder) *SocialHandler {
	return &SocialHandler{Svc: svc, R: r}
}

// Connect GET /api/social/:platform/connect returns the provider URL the
// client should send the user to.
func (h *SocialHandler) Connect(c *gin.Context) {
	u, err := h.Svc.Connect(c.Request.Context(), actor(c).UserID, c.Param("platform"))
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.Success(c, http.StatusOK, gin.H{"authorize_url": u}, "redirect to the platform to continue", nil)
}

// Callback GET /api/social/:platform/callback
func (h *SocialHandler) Callback(c *gin.Context) {
	v, err := h.Svc.Callback(c.Request.Context(), actor(c).UserID, c.Param("platform"), application.CallbackInput{
		Code:  c.Query("code"),
		State: c.Query("state"),
		Error: c.Query("error"),
	})
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toLinkView(*v), "account verified", nil)
}
