package app

import (
	apihttp "github.com/yungbote/skillhub-backend/internal/http"
	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *apihttp.Server {
	return apihttp.NewServer(apihttp.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       cfg.ServiceName,
		AllowedOrigins:    cfg.AllowedOrigins,
		AuthMiddleware:    middleware.Auth,
		HealthHandler:     handlers.Health,
		SkillHandler:      handlers.Skill,
		PublishHandler:    handlers.Publish,
		SkillAdminHandler: handlers.SkillAdmin,
		UserHandler:       handlers.User,
	})
}
