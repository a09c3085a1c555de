package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/response"
	"github.com/oksasatya/creator-marketplace/pkg/upload"
	"github.com/oksasatya/creator-marketplace/pkg/validation"
)

type CreatorHandler struct {
	Svc *application.CreatorService
	R   *response.Responder
}

func NewCreatorHandler(svc *application.CreatorService, r *response.Responder) *CreatorHandler {
	return &CreatorHandler{Svc: svc, R: r}
}

type settingsForm struct {
	DisplayName string `form:"display_name" binding:"omitempty,personname"`
	Username    string `form:"username" binding:"omitempty,username"`
	Bio         string `form:"bio"`
}

type socialLinkRequest struct {
	Platform string `json:"platform" binding:"required"`
	URL      string `json:"url" binding:"required"`
}

// GetMe GET /api/creators/me
func (h *CreatorHandler) GetMe(c *gin.Context) {
	p, err := h.Svc.GetMe(c.Request.Context(), actor(c).UserID)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"creator":      toCreatorView(p.Creator),
		"social_links": toLinkViews(p.Links),
	}, "creator profile", nil)
}

// UpdateMe PUT /api/creators/me takes multipart form fields display_name,
// username, bio and an optional avatar file.
func (h *CreatorHandler) UpdateMe(c *gin.Context) {
	var form settingsForm
	if err := c.ShouldBind(&form); err != nil {
		h.R.Fail(c, apperror.ValidationFields(validation.ToDetails(err)))
		return
	}
	in := application.SettingsInput{DisplayName: form.DisplayName, Username: form.Username, Bio: form.Bio}
	if fh, err := c.FormFile("avatar"); err == nil {
		f := upload.FromMultipart(fh)
		in.Avatar = &f
	}
	cr, err := h.Svc.UpdateSettings(c.Request.Context(), actor(c).UserID, in)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toCreatorView(cr), "settings saved", nil)
}

// AddSocialLink POST /api/creators/me/social-links
func (h *CreatorHandler) AddSocialLink(c *gin.Context) {
	var req socialLinkRequest
	if !bindJSON(c, h.R, &req) {
		return
	}
	v, err := h.Svc.AddSocialLink(c.Request.Context(), actor(c).UserID, req.Platform, req.URL)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toLinkView(*v), "social link saved", nil)
}

// RemoveSocialLink DELETE /api/creators/me/social-links/:platform
func (h *CreatorHandler) RemoveSocialLink(c *gin.Context) {
	if err := h.Svc.RemoveSocialLink(c.Request.Context(), actor(c).UserID, c.Param("platform")); err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"removed": true}, "social link removed", nil)
}

// Storefront GET /api/storefronts/:username
func (h *CreatorHandler) Storefront(c *gin.Context) {
	sf, err := h.Svc.Storefront(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"creator":      toCreatorView(sf.Creator),
		"social_links": toLinkViews(sf.Links),
		"listings":     toListingViews(sf.Listings, false),
	}, "storefront", nil)
}
