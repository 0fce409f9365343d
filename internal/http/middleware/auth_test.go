package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
		"Bearerabc":    "",
	}
	for header, want := range cases {
		if got := bearerToken(header); got != want {
			t.Fatalf("%q: want %q got %q", header, want, got)
		}
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := &AuthMiddleware{log: logger.NewNop()}

	cases := []struct {
		role user.Role
		min  user.Role
		want int
	}{
		{user.RoleUser, user.RoleModerator, http.StatusUnauthorized},
		{user.RoleModerator, user.RoleModerator, http.StatusOK},
		{user.RoleModerator, user.RoleAdmin, http.StatusUnauthorized},
		{user.RoleAdmin, user.RoleModerator, http.StatusOK},
		{"", user.RoleUser, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			rd := &ctxutil.RequestData{UserID: uuid.New(), Role: string(tc.role)}
			c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		}, am.RequireRole(tc.min))
		r.DELETE("/api/v1/skills/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/skills/x", nil))
		if rec.Code != tc.want {
			t.Fatalf("%s needs %s: want %d got %d", tc.role, tc.min, tc.want, rec.Code)
		}
	}
}
