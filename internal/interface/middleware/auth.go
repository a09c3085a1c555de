package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/helpers"
	"github.com/oksasatya/creator-marketplace/pkg/response"
)

// Gin context keys set by Auth.
const (
	CtxUserID    = "userID"
	CtxSessionID = "sessionID"
	CtxRoles     = "roles"
	CtxVerified  = "verified"
)

var errNoSession = errors.New("no active session")


// authenticate resolves the access cookie to the live session it was issued for.
func authenticate(c *gin.Context, rdb *redis.Client, jwt *helpers.JWTManager) (map[string]string, error) {
	token, err := c.Cookie(helpers.AccessCookie)
	if err != nil || token == "" {
		return nil, apperror.Authentication("missing access token")
	}
	claims, err := jwt.ParseAccessToken(token)
	if err != nil {
		return nil, apperror.Authentication("invalid access token")
	}
	data, err := rdb.HGetAll(c.Request.Context(), helpers.KeySession(claims.UserID)).Result()
	if err != nil {
		return nil, apperror.Upstream("session store", err)
	}
	// a refreshed or newer login replaces sid; older access tokens die with it
	if len(data) == 0 || data["sid"] != claims.SessionID {
		return nil, apperror.Authentication("session expired, please log in again").Wrap(errNoSession)
	}
	return data, nil
}

func setSession(c *gin.Context, data map[string]string) {
	c.Set(CtxUserID, data["user_id"])
	c.Set(CtxSessionID, data["sid"])
	c.Set("userName", data["name"])
	c.Set("userEmail", data["email"])
	c.Set(CtxVerified, data["verified"] == "1" || data["verified"] == "true")
	var roles []string
	for _, r := range strings.Split(data["roles"], ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	c.Set(CtxRoles, roles)
}

// Auth validates the access token and ensures it belongs to the active session in Redis.
// It sets userID, sessionID and roles in the Gin context on success.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager, r *response.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := authenticate(c, rdb, jwt)
		if err != nil {
			r.Fail(c, err)
			return
		}
		setSession(c, data)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid session cookie is present and
// lets anonymous requests through otherwise.
func OptionalAuth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if data, err := authenticate(c, rdb, jwt); err == nil {
			setSession(c, data)
		}
		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(role string, r *response.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasRole(c, role) {
			r.Fail(c, apperror.Authorization("you do not have access to this resource"))
			return
		}
		c.Next()
	}
}

func HasRole(c *gin.Context, role string) bool {
	for _, have := range Roles(c) {
		if have == role {
			return true
		}
	}
	return false
}

func Roles(c *gin.Context) []string {
	v, _ := c.Get(CtxRoles)
	roles, _ := v.([]string)
	return roles
}
