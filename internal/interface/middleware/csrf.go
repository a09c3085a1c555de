package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/csrf"
	"github.com/oksasatya/creator-marketplace/pkg/response"
)

const (
	CSRFHeader = "X-CSRF-Token"
	CSRFField  = "csrf_token"
)

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// CSRF consumes the one-time token of the caller's session on state-changing
// requests. It must run after Auth. Every failure gets the same generic 403.
func CSRF(m *csrf.Manager, r *response.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutating(c.Request.Method) {
			c.Next()
			return
		}
		token := c.GetHeader(CSRFHeader)
		if token == "" {
			token = c.PostForm(CSRFField)
		}
		err := m.Consume(c.Request.Context(), c.GetString(CtxSessionID), token)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, csrf.ErrInvalidToken):
			if r.Logger != nil {
				r.Logger.WithFields(logrus.Fields{
					"request_id": c.GetString("request_id"),
					"user_id":    c.GetString(CtxUserID),
					"path":       c.FullPath(),
				}).Warn("csrf token rejected")
			}
			r.Fail(c, apperror.CSRF())
		default:
			r.Fail(c, apperror.Upstream("csrf store", err))
		}
	}
}
