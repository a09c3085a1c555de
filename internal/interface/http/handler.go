package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/internal/interface/middleware"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/response"
	"github.com/oksasatya/creator-marketplace/pkg/validation"
)

// actor describes the authenticated caller for services that audit or authorize.
func actor(c *gin.Context) application.Actor {
	return application.Actor{
		UserID:    c.GetString(middleware.CtxUserID),
		SessionID: c.GetString(middleware.CtxSessionID),
		Roles:     middleware.Roles(c),
		IP:        middleware.ClientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// viewer is nil for anonymous requests.
func viewer(c *gin.Context) *application.Actor {
	if c.GetString(middleware.CtxUserID) == "" {
		return nil
	}
	a := actor(c)
	return &a
}

// bindJSON binds and validates the body, answering 422 on failure.
func bindJSON(c *gin.Context, r *response.Responder, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		r.Fail(c, apperror.ValidationFields(validation.ToDetails(err)))
		return false
	}
	return true
}

func page(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}
