// Package middleware provides the gin middleware chain: request context,
// session loading, page guards, API role checks, CSRF and rate limiting.
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	// AllowedOrigins should match the origins the site is served from.
	AllowedOrigins []string
}

// CSRF rejects state-changing requests whose Origin (or, failing that,
// Referer) is not an allowed origin. Auth travels in cookies, which the
// browser attaches to cross-site requests too.
func CSRF(config CSRFConfig) gin.HandlerFunc {
	allowed := make(map[string]bool, len(config.AllowedOrigins))
	for _, origin := range config.AllowedOrigins {
		allowed[normalizeOrigin(origin)] = true
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		source, reason := c.GetHeader("Origin"), "invalid origin"
		if source == "" {
			source, reason = originOf(c.GetHeader("Referer")), "invalid referer"
			if c.GetHeader("Referer") == "" {
				reason = "missing origin"
			}
		}
		if source == "" || !allowed[normalizeOrigin(source)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF validation failed: " + reason})
			return
		}
		c.Next()
	}
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}

// originOf returns scheme://host of rawURL, or "" if it has neither.
func originOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
