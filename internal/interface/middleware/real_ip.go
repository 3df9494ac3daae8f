package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxRealIPKey is the Gin context key holding the resolved client IP.
const CtxRealIPKey = "real_ip"

// proxyHeaders, in trust order. X-Forwarded-For may carry a chain; only the
// left-most entry is the client.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// resolveIP returns the first parseable IP among the proxy headers, or ""
// when none is usable.
func resolveIP(header func(string) string) string {
	for _, h := range proxyHeaders {
		v := header(h)
		if h == "X-Forwarded-For" {
			v, _, _ = strings.Cut(v, ",")
		}
		if ip := net.ParseIP(strings.TrimSpace(v)); ip != nil {
			return ip.String()
		}
	}
	return ""
}

// RealIP resolves the client IP once per request, before rate limiting, so
// limiter keys see the caller behind Cloudflare or a reverse proxy rather
// than the proxy itself.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := resolveIP(c.GetHeader)
		if ip == "" {
			ip = c.ClientIP()
		}
		c.Set(CtxRealIPKey, ip)
		c.Next()
	}
}
