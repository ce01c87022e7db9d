package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/audit"
	"github.com/JAFletch-surg/dukes-club/internal/config"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/policy"
	"github.com/JAFletch-surg/dukes-club/internal/service"
	"github.com/JAFletch-surg/dukes-club/internal/session"
	"github.com/gin-gonic/gin"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type mockAuthService struct {
	signUpFunc        func(ctx context.Context, req service.SignUpRequest) (*service.SignUpResult, error)
	signInFunc        func(ctx context.Context, email, password, redirect string) (*service.SignInResult, error)
	signOutFunc       func(ctx context.Context, refreshToken string) error
	refreshFunc       func(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	verifyEmailFunc   func(ctx context.Context, token string) error
	requestResetFunc  func(ctx context.Context, email, redirectPath string) error
	resetPasswordFunc func(ctx context.Context, token, password, confirm string) error
}

var errNotImplemented = errors.New("not implemented")

func (m *mockAuthService) SignUp(ctx context.Context, req service.SignUpRequest) (*service.SignUpResult, error) {
	if m.signUpFunc != nil {
		return m.signUpFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAuthService) SignIn(ctx context.Context, email, password, redirect string) (*service.SignInResult, error) {
	if m.signInFunc != nil {
		return m.signInFunc(ctx, email, password, redirect)
	}
	return nil, errNotImplemented
}

func (m *mockAuthService) SignOut(ctx context.Context, refreshToken string) error {
	if m.signOutFunc != nil {
		return m.signOutFunc(ctx, refreshToken)
	}
	return errNotImplemented
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return nil, errNotImplemented
}

func (m *mockAuthService) CurrentIdentity(context.Context, string) (*models.Identity, error) {
	return nil, errNotImplemented
}

func (m *mockAuthService) VerifyEmail(ctx context.Context, token string) error {
	if m.verifyEmailFunc != nil {
		return m.verifyEmailFunc(ctx, token)
	}
	return errNotImplemented
}

func (m *mockAuthService) RequestPasswordReset(ctx context.Context, email, redirectPath string) error {
	if m.requestResetFunc != nil {
		return m.requestResetFunc(ctx, email, redirectPath)
	}
	return errNotImplemented
}

func (m *mockAuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if m.resetPasswordFunc != nil {
		return m.resetPasswordFunc(ctx, token, password, confirm)
	}
	return errNotImplemented
}

func (m *mockAuthService) Subscribe(service.IdentityListener) func() {
	return func() {}
}

type recordingActionLogs struct {
	logs []models.ActionLog
}

func (r *recordingActionLogs) Create(_ context.Context, log *models.ActionLog) error {
	r.logs = append(r.logs, *log)
	return nil
}

func (r *recordingActionLogs) ListRecent(context.Context, int) ([]models.ActionLog, error) {
	return r.logs, nil
}

func (r *recordingActionLogs) actions() []string {
	out := make([]string, 0, len(r.logs))
	for _, l := range r.logs {
		out = append(out, l.ActionType)
	}
	return out
}

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestHandler(mockService *mockAuthService) (*AuthHandler, *recordingActionLogs) {
	logs := &recordingActionLogs{}
	cookieHelper := NewCookieHelper(config.CookieConfig{Path: "/", SameSite: http.SameSiteLaxMode})
	approval := policy.NewApprovalPolicy([]string{"nhs.net"}, []string{".ac.uk"})
	return NewAuthHandler(mockService, approval, cookieHelper, audit.NewLogger(logs), 15*time.Minute, 7*24*time.Hour), logs
}

func createTestContext(method, path string, body interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}

	c.Request = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

func withSession(c *gin.Context, s session.Session) {
	c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func signInResult() *service.SignInResult {
	return &service.SignInResult{
		TokenPair: service.TokenPair{AccessToken: "access_123", RefreshToken: "refresh_456", ExpiresIn: 900},
		Identity:  models.Identity{ID: "user-1", Email: "jo@nhs.net"},
		Profile:   &models.Profile{Base: models.Base{ID: "user-1"}, Role: models.RoleMember, ApprovalStatus: models.ApprovalApproved},
		Landing:   "/members/events",
	}
}

// =============================================================================
// Register Handler Tests
// =============================================================================

func TestRegister_Success(t *testing.T) {
	mockService := &mockAuthService{
		signUpFunc: func(_ context.Context, req service.SignUpRequest) (*service.SignUpResult, error) {
			if req.Email != "jo@nhs.net" {
				t.Errorf("email = %q", req.Email)
			}
			return &service.SignUpResult{
				UserID:         "user-1",
				Classification: policy.Classification{Status: models.ApprovalApproved, Role: models.RoleTrainee},
			}, nil
		},
	}

	handler, logs := setupTestHandler(mockService)
	w, c := createTestContext("POST", "/api/v1/auth/register", service.SignUpRequest{Email: "jo@nhs.net", Password: "longenough"})
	handler.Register(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if got := logs.actions(); len(got) != 1 || got[0] != models.ActionRegister {
		t.Errorf("audit actions = %v", got)
	}
}

func TestRegister_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid input",
			err:        apperrors.NewAuthError(apperrors.AuthInvalidInput, "Passwords do not match."),
			wantStatus: http.StatusBadRequest,
			wantError:  "Passwords do not match.",
		},
		{
			name:       "already registered",
			err:        apperrors.NewAuthError(apperrors.AuthAlreadyRegistered, "An account with this email already exists."),
			wantStatus: http.StatusConflict,
			wantError:  "An account with this email already exists.",
		},
		{
			name:       "store failure",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := setupTestHandler(&mockAuthService{
				signUpFunc: func(context.Context, service.SignUpRequest) (*service.SignUpResult, error) {
					return nil, tt.err
				},
			})
			w, c := createTestContext("POST", "/api/v1/auth/register", service.SignUpRequest{})
			handler.Register(c)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := decodeBody(t, w)["error"]; got != tt.wantError {
				t.Errorf("error = %v, want %q", got, tt.wantError)
			}
		})
	}
}

// =============================================================================
// Login Handler Tests
// =============================================================================

func TestLogin_Success(t *testing.T) {
	var gotRedirect string
	handler, _ := setupTestHandler(&mockAuthService{
		signInFunc: func(_ context.Context, email, password, redirect string) (*service.SignInResult, error) {
			gotRedirect = redirect
			return signInResult(), nil
		},
	})

	w, c := createTestContext("POST", "/api/v1/auth/login", LoginRequest{Email: "jo@nhs.net", Password: "secret123", Redirect: "/members/events"})
	handler.Login(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if gotRedirect != "/members/events" {
		t.Errorf("redirect passed = %q", gotRedirect)
	}

	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Landing != "/members/events" || resp.ExpiresIn != 900 || resp.Identity.ID != "user-1" {
		t.Errorf("unexpected response %+v", resp)
	}

	cookies := w.Result().Cookies()
	access := cookieByName(cookies, AccessTokenCookie)
	refresh := cookieByName(cookies, RefreshTokenCookie)
	if access == nil || access.Value != "access_123" {
		t.Errorf("access cookie = %+v", access)
	}
	if refresh == nil || refresh.Value != "refresh_456" || refresh.Path != RefreshTokenPath {
		t.Errorf("refresh cookie = %+v", refresh)
	}
	if strings.Contains(w.Body.String(), "refresh_456") {
		t.Error("refresh token must not appear in the body")
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantAudit  bool
	}{
		{
			name:       "invalid credentials",
			err:        apperrors.NewAuthError(apperrors.AuthInvalidCredentials, "Incorrect email or password. Please try again."),
			wantStatus: http.StatusUnauthorized,
			wantAudit:  true,
		},
		{
			name:       "email not confirmed",
			err:        apperrors.NewAuthError(apperrors.AuthEmailNotConfirmed, "Please check your inbox."),
			wantStatus: http.StatusUnauthorized,
			wantAudit:  true,
		},
		{
			name:       "missing fields",
			err:        apperrors.NewAuthError(apperrors.AuthInvalidInput, "Please enter both email and password."),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "redis down",
			err:        errors.New("dial tcp: connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, logs := setupTestHandler(&mockAuthService{
				signInFunc: func(context.Context, string, string, string) (*service.SignInResult, error) {
					return nil, tt.err
				},
			})
			w, c := createTestContext("POST", "/api/v1/auth/login", LoginRequest{Email: " Jo@NHS.net ", Password: "x"})
			handler.Login(c)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if len(w.Result().Cookies()) != 0 {
				t.Error("no cookies should be set on failure")
			}
			if got := len(logs.logs) == 1; got != tt.wantAudit {
				t.Fatalf("audited = %v, want %v", got, tt.wantAudit)
			}
			if tt.wantAudit {
				entry := logs.logs[0]
				if entry.ActionType != models.ActionLoginFailure || entry.Details["email"] != "jo@nhs.net" {
					t.Errorf("unexpected audit entry %+v", entry)
				}
			}
		})
	}
}

func TestLogin_InvalidBody(t *testing.T) {
	handler, _ := setupTestHandler(&mockAuthService{})
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// =============================================================================
// Logout and Refresh Handler Tests
// =============================================================================

func TestLogout(t *testing.T) {
	tests := []struct {
		name       string
		cookie     string
		signOutErr error
		wantStatus int
		wantCalled bool
	}{
		{name: "with refresh cookie", cookie: "refresh_456", wantStatus: http.StatusOK, wantCalled: true},
		{name: "without cookie", wantStatus: http.StatusOK},
		{
			name:       "already revoked token",
			cookie:     "stale",
			signOutErr: apperrors.NewAuthError(apperrors.AuthInvalidToken, "expired"),
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{name: "store failure", cookie: "refresh_456", signOutErr: errors.New("redis down"), wantStatus: http.StatusInternalServerError, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler, _ := setupTestHandler(&mockAuthService{
				signOutFunc: func(_ context.Context, token string) error {
					called = true
					if token != tt.cookie {
						t.Errorf("token = %q, want %q", token, tt.cookie)
					}
					return tt.signOutErr
				},
			})
			w, c := createTestContext("POST", "/api/v1/auth/logout", nil)
			if tt.cookie != "" {
				c.Request.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: tt.cookie})
			}
			handler.Logout(c)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("SignOut called = %v, want %v", called, tt.wantCalled)
			}
			if cookie := cookieByName(w.Result().Cookies(), AccessTokenCookie); cookie == nil || cookie.MaxAge >= 0 {
				t.Errorf("access cookie should be cleared, got %+v", cookie)
			}
		})
	}
}

func TestRefresh_FromBody(t *testing.T) {
	handler, _ := setupTestHandler(&mockAuthService{
		refreshFunc: func(_ context.Context, token string) (*service.TokenPair, error) {
			if token != "refresh_body" {
				t.Errorf("token = %q", token)
			}
			return &service.TokenPair{AccessToken: "a2", RefreshToken: "r2", ExpiresIn: 900}, nil
		},
	})
	w, c := createTestContext("POST", "/api/v1/auth/refresh", RefreshRequest{RefreshToken: "refresh_body"})
	handler.Refresh(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if cookie := cookieByName(w.Result().Cookies(), RefreshTokenCookie); cookie == nil || cookie.Value != "r2" {
		t.Errorf("refresh cookie = %+v", cookie)
	}
}

func TestRefresh_Missing(t *testing.T) {
	handler, _ := setupTestHandler(&mockAuthService{})
	w, c := createTestContext("POST", "/api/v1/auth/refresh", nil)
	handler.Refresh(c)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRefresh_InvalidTokenClearsCookies(t *testing.T) {
	handler, _ := setupTestHandler(&mockAuthService{
		refreshFunc: func(context.Context, string) (*service.TokenPair, error) {
			return nil, apperrors.NewAuthError(apperrors.AuthInvalidToken, "Your session has expired. Please sign in again.")
		},
	})
	w, c := createTestContext("POST", "/api/v1/auth/refresh", nil)
	c.Request.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "reused"})
	handler.Refresh(c)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if cookie := cookieByName(w.Result().Cookies(), RefreshTokenCookie); cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("refresh cookie should be cleared, got %+v", cookie)
	}
}

// =============================================================================
// Password Reset and Verification Tests
// =============================================================================

func TestForgotPassword_DoesNotRevealAccount(t *testing.T) {
	var gotRedirect string
	handler, _ := setupTestHandler(&mockAuthService{
		requestResetFunc: func(_ context.Context, _ string, redirect string) error {
			gotRedirect = redirect
			return nil
		},
	})
	w, c := createTestContext("POST", "/api/v1/auth/forgot-password", ForgotPasswordRequest{Email: "nobody@example.com", Redirect: "/account/reset"})
	handler.ForgotPassword(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeBody(t, w)["message"]; got != msgResetSent {
		t.Errorf("message = %v", got)
	}
	if gotRedirect != "/account/reset" {
		t.Errorf("redirect = %q", gotRedirect)
	}
}

func TestResetPassword(t *testing.T) {
	handler, _ := setupTestHandler(&mockAuthService{
		resetPasswordFunc: func(_ context.Context, token, password, confirm string) error {
			if password != confirm {
				return apperrors.NewAuthError(apperrors.AuthInvalidInput, "Passwords do not match.")
			}
			return nil
		},
	})

	w, c := createTestContext("POST", "/api/v1/auth/reset-password", ResetPasswordRequest{Token: "t", Password: "newpassword", ConfirmPassword: "newpassword"})
	handler.ResetPassword(c)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	w, c = createTestContext("POST", "/api/v1/auth/reset-password", ResetPasswordRequest{Token: "t", Password: "newpassword", ConfirmPassword: "other"})
	handler.ResetPassword(c)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestVerifyEmail(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantLocation string
	}{
		{name: "confirmed", wantStatus: http.StatusSeeOther, wantLocation: service.VerifiedLandingPath},
		{
			name:         "expired link",
			err:          apperrors.NewAuthError(apperrors.AuthInvalidToken, "This link is invalid or has expired."),
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?verified=false",
		},
		{name: "store failure", err: errors.New("redis down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := setupTestHandler(&mockAuthService{
				verifyEmailFunc: func(_ context.Context, token string) error {
					if token != "abc" {
						t.Errorf("token = %q", token)
					}
					return tt.err
				},
			})
			w, c := createTestContext("GET", "/api/v1/auth/verify?token=abc", nil)
			handler.VerifyEmail(c)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}

// =============================================================================
// Session, Resolve and Approval Preview Tests
// =============================================================================

func TestSession(t *testing.T) {
	handler, _ := setupTestHandler(&mockAuthService{})

	w, c := createTestContext("GET", "/api/v1/auth/session", nil)
	result := signInResult()
	withSession(c, session.Session{State: session.Ready, Identity: &result.Identity, Profile: result.Profile})
	handler.Session(c)

	var resp SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.State != "ready" || resp.Identity == nil || resp.Identity.ID != "user-1" {
		t.Errorf("unexpected session %+v", resp)
	}
	if !resp.Flags.IsMember || !resp.Flags.IsTrainee || resp.Flags.IsEditor || resp.Flags.IsPending {
		t.Errorf("flags = %+v", resp.Flags)
	}

	w, c = createTestContext("GET", "/api/v1/auth/session", nil)
	handler.Session(c)
	if got := decodeBody(t, w)["state"]; got != "anonymous" {
		t.Errorf("state = %v, want anonymous", got)
	}
}

func TestResolve(t *testing.T) {
	handler, _ := setupTestHandler(&mockAuthService{})
	pending := &models.Profile{Base: models.Base{ID: "u2"}, Role: models.RoleTrainee, ApprovalStatus: models.ApprovalPending}

	tests := []struct {
		name         string
		query        string
		session      session.Session
		wantStatus   int
		wantAllowed  bool
		wantLocation string
	}{
		{name: "anonymous public", query: "/events", wantStatus: http.StatusOK, wantAllowed: true},
		{name: "anonymous members", query: "/members/events", wantStatus: http.StatusOK, wantLocation: "/login?redirect=%2Fmembers%2Fevents"},
		{
			name:         "pending members",
			query:        "/members",
			session:      session.Session{State: session.Ready, Identity: &models.Identity{ID: "u2"}, Profile: pending},
			wantStatus:   http.StatusOK,
			wantLocation: policy.PathPendingApproval,
		},
		{name: "external target", query: "https://evil.example/members", wantStatus: http.StatusBadRequest},
		{name: "anonymous admin with query", query: "/admin?tab=draft", wantStatus: http.StatusOK, wantLocation: "/login?redirect=%2Fadmin%3Ftab%3Ddraft"},
		{
			name:         "pending members with query",
			query:        "/members?x=1",
			session:      session.Session{State: session.Ready, Identity: &models.Identity{ID: "u2"}, Profile: pending},
			wantStatus:   http.StatusOK,
			wantLocation: policy.PathPendingApproval,
		},
		{name: "anonymous dot segments", query: "/members/../admin", wantStatus: http.StatusOK, wantLocation: "/login?redirect=%2Fadmin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := createTestContext("GET", "/api/v1/auth/resolve", nil)
			c.Request.URL.RawQuery = url.Values{"path": {tt.query}}.Encode()
			withSession(c, tt.session)
			handler.Resolve(c)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			body := decodeBody(t, w)
			if body["allowed"] != tt.wantAllowed || body["location"] != tt.wantLocation {
				t.Errorf("decision = %v", body)
			}
		})
	}
}

func TestApprovalPreview(t *testing.T) {
	handler, _ := setupTestHandler(&mockAuthService{})

	tests := []struct {
		email       string
		wantStatus  string
		wantMessage string
	}{
		{email: "Jo@NHS.net", wantStatus: "approved", wantMessage: msgApprovedHint},
		{email: "jo@ucl.ac.uk", wantStatus: "approved", wantMessage: msgApprovedHint},
		{email: "jo@gmail.com", wantStatus: "pending", wantMessage: msgPendingHint},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			w, c := createTestContext("POST", "/api/v1/auth/approval-preview", ApprovalPreviewRequest{Email: tt.email})
			handler.ApprovalPreview(c)

			body := decodeBody(t, w)
			class, _ := body["classification"].(map[string]any)
			if class["approval_status"] != tt.wantStatus || class["role"] != "trainee" {
				t.Errorf("classification = %v", class)
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("message = %v", body["message"])
			}
		})
	}

	w, c := createTestContext("POST", "/api/v1/auth/approval-preview", ApprovalPreviewRequest{})
	handler.ApprovalPreview(c)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
