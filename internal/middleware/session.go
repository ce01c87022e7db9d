package middleware

import (
	"context"
	"strings"

	"github.com/JAFletch-surg/dukes-club/internal/session"
	"github.com/gin-gonic/gin"
)

// SessionLoader resolves the session behind an access token.
type SessionLoader interface {
	Load(ctx context.Context, accessToken string) session.Session
}

// TokenReader reads the access token cookie.
type TokenReader interface {
	GetAccessToken(c *gin.Context) string
}

// LoadSession resolves the caller's session once per request and stores it
// in the request context. A bearer token takes precedence over the cookie.
func LoadSession(loader SessionLoader, cookies TokenReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = cookies.GetAccessToken(c)
		}
		s := loader.Load(c.Request.Context(), token)
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

// CurrentSession returns the session LoadSession stored for this request.
func CurrentSession(c *gin.Context) session.Session {
	return session.FromContext(c.Request.Context())
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
