package handlers

import (
	"net/http"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/audit"
	"github.com/JAFletch-surg/dukes-club/internal/middleware"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/policy"
	"github.com/JAFletch-surg/dukes-club/internal/service"
	"github.com/JAFletch-surg/dukes-club/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	msgResetSent     = "If an account exists for that email, we've sent a password reset link."
	msgPasswordReset = "Your password has been updated. Please sign in."
	msgSignedOut     = "Signed out."
	msgApprovedHint  = "Your email domain is recognised. Your account will be approved automatically."
	msgPendingHint   = "Your account will need to be approved by an administrator before you can access members content."
)

// AuthHandler serves registration, sign-in and session endpoints.
type AuthHandler struct {
	auth          service.AuthService
	approval      policy.ApprovalPolicy
	cookies       *CookieHelper
	audit         *audit.Logger
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(
	auth service.AuthService,
	approval policy.ApprovalPolicy,
	cookies *CookieHelper,
	auditLogger *audit.Logger,
	accessExpiry, refreshExpiry time.Duration,
) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		approval:      approval,
		cookies:       cookies,
		audit:         auditLogger,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// LoginRequest is the sign-in payload. Redirect is the page the user was
// sent away from, if any.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Redirect string `json:"redirect"`
}

// LoginResponse tells the client where to go after signing in.
type LoginResponse struct {
	Landing   string          `json:"landing"`
	Identity  models.Identity `json:"identity"`
	Profile   *models.Profile `json:"profile"`
	ExpiresIn int64           `json:"expires_in"`
}

// RefreshRequest carries a refresh token for clients that do not use cookies.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email    string `json:"email"`
	Redirect string `json:"redirect"`
}

// ResetPasswordRequest completes a reset.
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ApprovalPreviewRequest asks how a registration would be classified.
type ApprovalPreviewRequest struct {
	Email string `json:"email"`
}

// RefreshResponse reports the lifetime of the new access token.
type RefreshResponse struct {
	ExpiresIn int64 `json:"expires_in"`
}

// ResolveResponse is a navigation decision.
type ResolveResponse struct {
	Allowed  bool   `json:"allowed"`
	Location string `json:"location"`
	Reason   string `json:"reason,omitempty"`
}

// ApprovalPreviewResponse is the classification a registration would get.
type ApprovalPreviewResponse struct {
	Classification policy.Classification `json:"classification"`
	Message        string                `json:"message"`
}

// SessionResponse is the caller's current session.
type SessionResponse struct {
	State    string           `json:"state"`
	Identity *models.Identity `json:"identity"`
	Profile  *models.Profile  `json:"profile"`
	Flags    session.Flags    `json:"flags"`
}

// Register godoc
// @Summary Register a member
// @Description Creates an identity and its profile.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignUpRequest true "Registration details"
// @Success 201 {object} service.SignUpResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.auth.SignUp(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), audit.Entry{
		Action:  models.ActionRegister,
		UserID:  result.UserID,
		Details: map[string]string{"approval_status": string(result.Classification.Status)},
	})
	c.JSON(http.StatusCreated, result)
}

// Login godoc
// @Summary Sign in
// @Description Checks credentials, sets the auth cookies and returns the landing page.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials and optional redirect"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password, req.Redirect)
	if err != nil {
		if apperrors.IsAuthKind(err, apperrors.AuthInvalidCredentials) || apperrors.IsAuthKind(err, apperrors.AuthEmailNotConfirmed) {
			h.audit.Log(c.Request.Context(), audit.Entry{
				Action:  models.ActionLoginFailure,
				Details: map[string]string{"email": models.NormalizeEmail(req.Email), "reason": err.Error()},
			})
		}
		RespondError(c, err)
		return
	}

	h.cookies.SetAuthCookies(c, result.AccessToken, result.RefreshToken, h.accessExpiry, h.refreshExpiry)
	c.JSON(http.StatusOK, LoginResponse{
		Landing:   result.Landing,
		Identity:  result.Identity,
		Profile:   result.Profile,
		ExpiresIn: result.ExpiresIn,
	})
}

// Logout godoc
// @Summary Sign out
// @Description Revokes the refresh token and clears the cookies. Cookies are cleared even when the token was already invalid.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token when no cookie is sent"
// @Success 200 {object} MessageResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := h.refreshToken(c)
	h.cookies.ClearAuthCookies(c)

	if token != "" {
		if err := h.auth.SignOut(c.Request.Context(), token); err != nil && !apperrors.IsAuthKind(err, apperrors.AuthInvalidToken) {
			RespondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, MessageResponse{Message: msgSignedOut})
}

// Refresh godoc
// @Summary Refresh tokens
// @Description Rotates the refresh token and reissues both cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token when no cookie is sent"
// @Success 200 {object} RefreshResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := h.refreshToken(c)
	if token == "" {
		respondMessage(c, http.StatusUnauthorized, "refresh token required")
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		if apperrors.IsAuthKind(err, apperrors.AuthInvalidToken) {
			h.cookies.ClearAuthCookies(c)
		}
		RespondError(c, err)
		return
	}

	h.cookies.SetAuthCookies(c, pair.AccessToken, pair.RefreshToken, h.accessExpiry, h.refreshExpiry)
	c.JSON(http.StatusOK, RefreshResponse{ExpiresIn: pair.ExpiresIn})
}

// refreshToken reads the refresh cookie, falling back to a JSON body.
func (h *AuthHandler) refreshToken(c *gin.Context) string {
	if token := h.cookies.GetRefreshToken(c); token != "" {
		return token
	}
	var req RefreshRequest
	if c.Request.ContentLength != 0 && c.ShouldBindJSON(&req) == nil {
		return req.RefreshToken
	}
	return ""
}

// ForgotPassword godoc
// @Summary Request a password reset
// @Description Sends a reset link. The response does not reveal whether the address is registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email, req.Redirect); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: msgResetSent})
}

// ResetPassword godoc
// @Summary Complete a password reset
// @Description Sets a new password from an emailed token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: msgPasswordReset})
}

// VerifyEmail godoc
// @Summary Verify an email address
// @Description Confirms an address from the emailed link and redirects to the login page.
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 303
// @Router /auth/verify [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	if err := h.auth.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
		if !apperrors.IsAuthKind(err, apperrors.AuthInvalidToken) {
			RespondError(c, err)
			return
		}
		c.Redirect(http.StatusSeeOther, policy.PathLogin+"?verified=false")
		return
	}
	c.Redirect(http.StatusSeeOther, service.VerifiedLandingPath)
}

// Session godoc
// @Summary Current session
// @Description Returns the caller's identity, profile and role flags.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionResponse
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	s := middleware.CurrentSession(c)
	c.JSON(http.StatusOK, SessionResponse{
		State:    s.State.String(),
		Identity: s.Identity,
		Profile:  s.Profile,
		Flags:    s.Flags(),
	})
}

// Resolve godoc
// @Summary Resolve a navigation
// @Description Reports the navigation decision for ?path= under the caller's session.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Param path query string true "Local path to resolve"
// @Success 200 {object} ResolveResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/resolve [get]
func (h *AuthHandler) Resolve(c *gin.Context) {
	path := policy.LocalPath(c.Query("path"))
	if path == "" {
		respondMessage(c, http.StatusBadRequest, "path must be a local path")
		return
	}
	s := middleware.CurrentSession(c)
	d := policy.Resolve(path, s.Identity, s.Profile)
	resp := ResolveResponse{Allowed: d.Allowed(), Location: d.Location}
	if d.Reason != nil {
		resp.Reason = d.Reason.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// ApprovalPreview godoc
// @Summary Preview approval
// @Description Shows how a registration with this email would be classified.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ApprovalPreviewRequest true "Email to classify"
// @Success 200 {object} ApprovalPreviewResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/approval-preview [post]
func (h *AuthHandler) ApprovalPreview(c *gin.Context) {
	var req ApprovalPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		respondMessage(c, http.StatusBadRequest, "email is required")
		return
	}
	class := h.approval.Classify(models.NormalizeEmail(req.Email))
	message := msgPendingHint
	if class.AutoApproved() {
		message = msgApprovedHint
	}
	c.JSON(http.StatusOK, ApprovalPreviewResponse{Classification: class, Message: message})
}
