package handlers

import (
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/config"
	"github.com/gin-gonic/gin"
)

// Cookie names.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// RefreshTokenPath limits the refresh cookie to the auth endpoints.
const RefreshTokenPath = "/api/v1/auth"

// CookieHelper manages authentication cookies.
type CookieHelper struct {
	config config.CookieConfig
}

// NewCookieHelper creates a new cookie helper with the given configuration.
func NewCookieHelper(cfg config.CookieConfig) *CookieHelper {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &CookieHelper{config: cfg}
}

// SetAuthCookies sets both access and refresh token cookies.
func (h *CookieHelper) SetAuthCookies(c *gin.Context, accessToken, refreshToken string, accessExpiry, refreshExpiry time.Duration) {
	h.setCookie(c, AccessTokenCookie, accessToken, h.config.Path, int(accessExpiry.Seconds()))
	h.setCookie(c, RefreshTokenCookie, refreshToken, RefreshTokenPath, int(refreshExpiry.Seconds()))
}

// ClearAuthCookies removes both authentication cookies.
func (h *CookieHelper) ClearAuthCookies(c *gin.Context) {
	h.setCookie(c, AccessTokenCookie, "", h.config.Path, -1)
	h.setCookie(c, RefreshTokenCookie, "", RefreshTokenPath, -1)
}

// GetAccessToken returns the access token cookie, or "".
func (h *CookieHelper) GetAccessToken(c *gin.Context) string {
	token, _ := c.Cookie(AccessTokenCookie)
	return token
}

// GetRefreshToken returns the refresh token cookie, or "".
func (h *CookieHelper) GetRefreshToken(c *gin.Context) string {
	token, _ := c.Cookie(RefreshTokenCookie)
	return token
}

func (h *CookieHelper) setCookie(c *gin.Context, name, value, path string, maxAge int) {
	c.SetSameSite(h.config.SameSite)
	c.SetCookie(name, value, maxAge, path, h.config.Domain, h.config.Secure, true)
}
