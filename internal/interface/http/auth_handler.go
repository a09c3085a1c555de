package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/csrf"
	"github.com/oksasatya/creator-marketplace/pkg/response"
)

// AuthHandler serves form tokens, email verification and password reset.
type AuthHandler struct {
	Svc  *application.AuthService
	CSRF *csrf.Manager
	R    *response.Responder
}

func NewAuthHandler(svc *application.AuthService, csrfm *csrf.Manager, r *response.Responder) *AuthHandler {
	return &AuthHandler{Svc: svc, CSRF: csrfm, R: r}
}

type tokenRequest struct {
	Token string `json:"token" binding:"required,max=128"`
}

type resetInitRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token" binding:"required,max=128"`
	Password string `json:"password" binding:"required,pwd"`
}

// CSRFToken GET /api/csrf issues the single live form token of the session.
func (h *AuthHandler) CSRFToken(c *gin.Context) {
	tok, err := h.CSRF.Issue(c.Request.Context(), actor(c).SessionID)
	if err != nil {
		h.R.Fail(c, apperror.Upstream("csrf store", err))
		return
	}
	c.Header("Cache-Control", "no-store")
	response.Success(c, http.StatusOK, gin.H{"csrf_token": tok}, "csrf token", nil)
}

// VerifyInit POST /api/auth/verify/init
func (h *AuthHandler) VerifyInit(c *gin.Context) {
	if err := h.Svc.InitEmailVerification(c.Request.Context(), actor(c).UserID); err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success[any](c, http.StatusAccepted, gin.H{"sent": true}, "verification email sent", nil)
}

// VerifyConfirm POST /api/auth/verify/confirm
func (h *AuthHandler) VerifyConfirm(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, h.R, &req) {
		return
	}
	if err := h.Svc.ConfirmEmailVerification(c.Request.Context(), req.Token); err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"verified": true}, "email verified", nil)
}

// ResetInit POST /api/auth/reset/init answers the same way whether or not the
// email belongs to an account.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req resetInitRequest
	if !bindJSON(c, h.R, &req) {
		return
	}
	if err := h.Svc.InitPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success[any](c, http.StatusAccepted, gin.H{"sent": true}, "if the email exists, a reset link has been sent", nil)
}

// ResetConfirm POST /api/auth/reset/confirm
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if !bindJSON(c, h.R, &req) {
		return
	}
	if err := h.Svc.ConfirmPasswordReset(c.Request.Context(), req.Token, req.Password); err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated, please log in", nil)
}
