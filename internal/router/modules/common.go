package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/creator-marketplace/internal/container"
	"github.com/oksasatya/creator-marketplace/internal/interface/middleware"
)

// limiter builds a fixed-window limiter wired to the shared metrics and responder.
func limiter(max int, window time.Duration, key middleware.KeyFunc) gin.HandlerFunc {
	return middleware.RateLimit(container.GetRedis(), max, window, key, nil,
		middleware.WithRateLimitMetrics(container.GetMetrics()),
		middleware.WithResponder(container.GetResponder()),
	)
}

// publicLimiter throttles unauthenticated endpoints per IP and route.
func publicLimiter() gin.HandlerFunc {
	cfg := container.GetConfig()
	return limiter(cfg.AuthRateLimitMax, cfg.AuthRateLimitWindow, middleware.KeyByIPAndPath())
}

// uploadLimit bounds request bodies so form parsing cannot exhaust memory.
func uploadLimit() int64 {
	cfg := container.GetConfig()
	return int64(cfg.MaxPhotosPerListing)*cfg.MaxPhotoBytes + 1<<20
}

// protected returns a group that requires a session. Mutating requests must
// carry the session's form token; the body limit runs first because the CSRF
// check may parse a multipart form.
func protected(rg *gin.RouterGroup) *gin.RouterGroup {
	cfg := container.GetConfig()
	r := container.GetResponder()
	g := rg.Group("/")
	g.Use(
		middleware.Auth(container.GetRedis(), container.GetJWT(), r),
		limiter(cfg.RateLimitMax, cfg.RateLimitWindow, middleware.KeyByUserAndIP()),
		middleware.BodyLimit(uploadLimit()),
		middleware.CSRF(container.GetCSRF(), r),
	)
	return g
}
