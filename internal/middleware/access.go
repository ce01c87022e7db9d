package middleware

import (
	"log/slog"
	"net/http"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/metrics"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/policy"
	"github.com/JAFletch-surg/dukes-club/internal/session"
	"github.com/gin-gonic/gin"
)

// GuardPages applies the navigation decision table to page requests. A
// redirect is sent as 307. A request whose session is still loading gets no
// response, since its client has already gone away.
func GuardPages(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c)
		path := c.Request.URL.Path
		class := policy.Classify(path).String()

		if s.State == session.Loading {
			if m != nil {
				m.RouteDecision(class, "loading")
			}
			c.Abort()
			return
		}

		d := policy.Resolve(path, s.Identity, s.Profile)
		if m != nil {
			m.RouteDecision(class, d.Outcome.String())
		}
		if d.Allowed() {
			c.Next()
			return
		}

		if d.Reason != nil {
			slog.DebugContext(c.Request.Context(), "Navigation redirected", "path", path, "location", d.Location, "reason", d.Reason)
		}
		c.Redirect(http.StatusTemporaryRedirect, d.Location)
		c.Abort()
	}
}

// RequireSession rejects API requests without a signed-in identity.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentSession(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireApproved rejects API requests from members whose account has not
// been approved, including those whose profile could not be loaded.
func RequireApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c)
		if !s.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if s.Profile == nil || s.Profile.ApprovalStatus != models.ApprovalApproved {
			status := "pending"
			if s.Profile != nil {
				status = string(s.Profile.ApprovalStatus)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": (&apperrors.ApprovalError{Status: status}).Error()})
			return
		}
		c.Next()
	}
}

// RequireRole rejects API requests whose profile role fails allowed.
func RequireRole(allowed func(models.Role) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c)
		if !s.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if s.Profile == nil || !allowed(s.Profile.Role) {
			role := ""
			if s.Profile != nil {
				role = string(s.Profile.Role)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": (&apperrors.AuthorizationError{Role: role}).Error()})
			return
		}
		c.Next()
	}
}

// RequireStaff admits editors, admins and super admins.
func RequireStaff() gin.HandlerFunc { return RequireRole(models.Role.IsStaff) }

// RequireAdmin admits admins and super admins.
func RequireAdmin() gin.HandlerFunc { return RequireRole(models.Role.IsAdmin) }
