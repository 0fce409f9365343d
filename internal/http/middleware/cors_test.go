package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORSOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		configured []string
		origin     string
		allowed    bool
	}{
		{name: "vite dev server", origin: "http://localhost:5173", allowed: true},
		{name: "loopback dev server", origin: "http://127.0.0.1:3000", allowed: true},
		{name: "unknown origin", origin: "https://evil.example", allowed: false},
		{name: "configured origin", configured: []string{"https://skills.example.com"}, origin: "https://skills.example.com", allowed: true},
		{name: "defaults replaced", configured: []string{"https://skills.example.com"}, origin: "http://localhost:5173", allowed: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tc.configured))
			r.POST("/api/v1/skills/publish", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/skills/publish", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tc.allowed && got != tc.origin {
				t.Fatalf("allow-origin: got=%q want=%q (status %d)", got, tc.origin, rec.Code)
			}
			if !tc.allowed && got != "" {
				t.Fatalf("origin %q should be rejected, got allow-origin %q", tc.origin, got)
			}
		})
	}
}

func TestCORSExposesDownloadFilename(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(nil))
	r.GET("/api/v1/download", func(c *gin.Context) {
		c.Header("Content-Disposition", `attachment; filename="demo-1.0.0.zip"`)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/download", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := strings.ToLower(rec.Header().Get("Access-Control-Expose-Headers")); !strings.Contains(got, "content-disposition") {
		t.Fatalf("expose headers: %q", got)
	}
}
