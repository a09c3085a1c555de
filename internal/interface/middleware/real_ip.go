package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP stores the client IP under "real_ip". Rate limits and audit rows key
// on it, so forwarding headers are honoured only when trustProxy is set
// (the API sits behind Cloudflare or a load balancer). Priority:
// 1) CF-Connecting-IP
// 2) X-Forwarded-For (left-most)
// 3) the socket peer (c.RemoteIP)
func RealIP(trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if trustProxy {
			if ip := parseIP(c.GetHeader("CF-Connecting-IP")); ip != "" {
				c.Set("real_ip", ip)
				c.Next()
				return
			}
			if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
				if ip := parseIP(strings.Split(xff, ",")[0]); ip != "" {
					c.Set("real_ip", ip)
					c.Next()
					return
				}
			}
		}
		c.Set("real_ip", c.RemoteIP())
		c.Next()
	}
}

func parseIP(s string) string {
	if ip := net.ParseIP(strings.TrimSpace(s)); ip != nil {
		return ip.String()
	}
	return ""
}

// ClientIP returns the address RealIP resolved.
func ClientIP(c *gin.Context) string { return ipFromCtx(c) }
