package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/http/response"
	"github.com/yungbote/skillhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

// RequireAuth resolves the bearer token into request data or aborts with 401.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			am.log.Debug("Rejected bearer token", "path", c.FullPath(), "error", err)
			response.RespondFrom(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole runs after RequireAuth and rejects callers below min. The
// aggregate repeats the check; this only fails fast.
func (am *AuthMiddleware) RequireRole(min user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || !user.Role(rd.Role).AtLeast(min) {
			am.log.Debug("Role check failed", "path", c.FullPath(), "required", string(min))
			response.RespondFrom(c, domainagg.NewError(domainagg.CodeUnauthorized, "http.require_role", "unauthorized", nil))
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
