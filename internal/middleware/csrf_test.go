package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCSRF(t *testing.T) {
	gin.SetMode(gin.TestMode)

	config := CSRFConfig{AllowedOrigins: []string{"https://dukesclub.org.uk/", "http://localhost:8080"}}

	tests := []struct {
		name       string
		method     string
		origin     string
		referer    string
		wantStatus int
		wantReason string
	}{
		{name: "GET passes without headers", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "HEAD passes without headers", method: http.MethodHead, wantStatus: http.StatusOK},
		{name: "OPTIONS passes without headers", method: http.MethodOptions, wantStatus: http.StatusOK},
		{name: "POST with allowed origin", method: http.MethodPost, origin: "https://dukesclub.org.uk", wantStatus: http.StatusOK},
		{name: "POST with allowed origin in other case", method: http.MethodPost, origin: "HTTPS://DUKESCLUB.ORG.UK/", wantStatus: http.StatusOK},
		{name: "POST from another site", method: http.MethodPost, origin: "https://evil.example", wantStatus: http.StatusForbidden, wantReason: "invalid origin"},
		{name: "POST from another port", method: http.MethodPost, origin: "http://localhost:9999", wantStatus: http.StatusForbidden, wantReason: "invalid origin"},
		{name: "Origin null", method: http.MethodPost, origin: "null", wantStatus: http.StatusForbidden, wantReason: "invalid origin"},
		{name: "referer fallback", method: http.MethodPost, referer: "http://localhost:8080/admin/events", wantStatus: http.StatusOK},
		{name: "foreign referer", method: http.MethodPost, referer: "https://evil.example/attack", wantStatus: http.StatusForbidden, wantReason: "invalid referer"},
		{name: "referer without scheme", method: http.MethodPost, referer: "not-a-url", wantStatus: http.StatusForbidden, wantReason: "invalid referer"},
		{name: "no origin or referer", method: http.MethodPost, wantStatus: http.StatusForbidden, wantReason: "missing origin"},
		{name: "DELETE with allowed origin", method: http.MethodDelete, origin: "http://localhost:8080", wantStatus: http.StatusOK},
		{name: "PATCH from another site", method: http.MethodPatch, origin: "https://evil.example", wantStatus: http.StatusForbidden, wantReason: "invalid origin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CSRF(config))
			r.Any("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("CSRF() status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantReason != "" && !strings.Contains(w.Body.String(), tt.wantReason) {
				t.Errorf("body = %s, want reason %q", w.Body.String(), tt.wantReason)
			}
		})
	}
}

func TestOriginOf(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://dukesclub.org.uk/events?type=Webinar", "https://dukesclub.org.uk"},
		{"http://localhost:8080/login", "http://localhost:8080"},
		{"not-a-url", ""},
		{"", ""},
		{"null", ""},
	}

	for _, tt := range tests {
		if got := originOf(tt.rawURL); got != tt.want {
			t.Errorf("originOf(%q) = %q, want %q", tt.rawURL, got, tt.want)
		}
	}
}
