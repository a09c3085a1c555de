package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/creator-marketplace/pkg/response"
)

// Health reports whether Postgres and Redis answer within a second.
// A nil dependency is reported as skipped.
func Health(pool *pgxpool.Pool, rdb *redis.Client) ModuleFunc {
	return func(rg *gin.RouterGroup) {
		rg.GET("/health", func(c *gin.Context) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()

			checks := map[string]string{"postgres": "skipped", "redis": "skipped"}
			healthy := true
			if pool != nil {
				checks["postgres"] = "ok"
				if err := pool.Ping(ctx); err != nil {
					checks["postgres"], healthy = "down", false
				}
			}
			if rdb != nil {
				checks["redis"] = "ok"
				if err := rdb.Ping(ctx).Err(); err != nil {
					checks["redis"], healthy = "down", false
				}
			}
			if !healthy {
				response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", checks)
				return
			}
			response.Success(c, http.StatusOK, checks, "healthy", nil)
		})
	}
}
