package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/csrf"
	"github.com/oksasatya/creator-marketplace/pkg/helpers"
	"github.com/oksasatya/creator-marketplace/pkg/response"
)

type UserHandler struct {
	Svc     *application.AuthService
	CSRF    *csrf.Manager
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
	R       *response.Responder
}

func NewUserHandler(svc *application.AuthService, csrfm *csrf.Manager, logger *logrus.Logger, r *response.Responder, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, CSRF: csrfm, Logger: logger, R: r, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,pwd"`
	Name     string `json:"name" binding:"required,personname"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register POST /api/register
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, h.R, &req) {
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserView(u), "account created", nil)
}

// Login POST /api/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, h.R, &req) {
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)

	meta := map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry}
	if h.CSRF != nil {
		if tok, err := h.CSRF.Issue(c.Request.Context(), pair.SessionID); err == nil {
			meta["csrf_token"] = tok
		} else if h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", u.ID).Warn("issue csrf token after login failed")
		}
	}
	response.Success(c, http.StatusOK, toUserView(u), "login successful", meta)
}

// Refresh POST /api/refresh
func (h *UserHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		h.R.Fail(c, apperror.Authentication("missing refresh token"))
		return
	}
	pair, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		h.Cookies.Clear(c)
		h.R.Fail(c, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// Logout POST /api/logout
func (h *UserHandler) Logout(c *gin.Context) {
	a := actor(c)
	if err := h.Svc.Logout(c.Request.Context(), a.UserID, a.SessionID); err != nil {
		h.R.Fail(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// Me GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.Svc.Me(c.Request.Context(), actor(c).UserID)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserView(u), "profile", nil)
}
