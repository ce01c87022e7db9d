package pages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JAFletch-surg/dukes-club/internal/middleware"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/session"
	"github.com/gin-gonic/gin"
)

type tokenSessions map[string]session.Session

func (t tokenSessions) Load(_ context.Context, token string) session.Session {
	if s, ok := t[token]; ok {
		return s
	}
	return session.Session{State: session.Anonymous}
}

type bearerOnly struct{}

func (bearerOnly) GetAccessToken(*gin.Context) string { return "" }

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	id := &models.Identity{ID: "u1", Email: "sam@nhs.net"}
	sessions := tokenSessions{
		"member": {State: session.Ready, Identity: id, Profile: &models.Profile{
			Base: models.Base{ID: "u1"}, FullName: "Sam Patel", Role: models.RoleMember, ApprovalStatus: models.ApprovalApproved,
		}},
		"pending": {State: session.Ready, Identity: id, Profile: &models.Profile{
			Base: models.Base{ID: "u1"}, Role: models.RoleTrainee, ApprovalStatus: models.ApprovalPending,
		}},
		"editor": {State: session.Ready, Identity: id, Profile: &models.Profile{
			Base: models.Base{ID: "u1"}, Role: models.RoleEditor, ApprovalStatus: models.ApprovalApproved,
		}},
	}

	r := gin.New()
	r.Use(middleware.LoadSession(sessions, bearerOnly{}), middleware.GuardPages(nil))
	NewHandler().Mount(r)
	return r
}

func fetch(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPages(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name         string
		path         string
		token        string
		wantStatus   int
		wantLocation string
		wantBody     []string
	}{
		{name: "home", path: "/", wantStatus: http.StatusOK, wantBody: []string{"<title>Home | Dukes&#39; Club</title>", `href="/login"`}},
		{name: "anonymous members", path: "/members/events", wantStatus: http.StatusTemporaryRedirect, wantLocation: "/login?redirect=%2Fmembers%2Fevents"},
		{name: "member section", path: "/members/events", token: "member", wantStatus: http.StatusOK, wantBody: []string{"Welcome back, Sam Patel", `data-section="events"`}},
		{name: "pending member", path: "/members", token: "pending", wantStatus: http.StatusTemporaryRedirect, wantLocation: "/pending-approval"},
		{name: "member in admin", path: "/admin/events", token: "member", wantStatus: http.StatusTemporaryRedirect, wantLocation: "/members"},
		{name: "editor in admin", path: "/admin/events", token: "editor", wantStatus: http.StatusOK, wantBody: []string{`data-area="admin"`, `href="/admin"`}},
		{name: "signed in on login", path: "/login", token: "member", wantStatus: http.StatusTemporaryRedirect, wantLocation: "/members"},
		{name: "verified notice", path: "/login?verified=true", wantStatus: http.StatusOK, wantBody: []string{"Your email has been verified"}},
		{name: "register lists regions", path: "/register", wantStatus: http.StatusOK, wantBody: []string{"Wessex", "ST3"}},
		{name: "reset without token", path: "/reset-password", wantStatus: http.StatusOK, wantBody: []string{"invalid or has expired"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := fetch(r, tt.path, tt.token)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
			for _, want := range tt.wantBody {
				if !strings.Contains(w.Body.String(), want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}

func TestLogin_DropsExternalRedirect(t *testing.T) {
	w := fetch(newRouter(), "/login?redirect=https://evil.example/members", "")

	if strings.Contains(w.Body.String(), "evil.example") {
		t.Error("external redirect target must not be echoed into the form")
	}
}
