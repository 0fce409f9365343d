package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/skillhub-backend/internal/domain/user"
	httpH "github.com/yungbote/skillhub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillhub-backend/internal/http/middleware"
	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	SkillHandler      *httpH.SkillHandler
	PublishHandler    *httpH.PublishHandler
	SkillAdminHandler *httpH.SkillAdminHandler
	UserHandler       *httpH.UserHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	{
		// Public registry reads
		if cfg.SkillHandler != nil {
			api.GET("/search", cfg.SkillHandler.Search)
			api.GET("/skill", cfg.SkillHandler.GetSkill)
			api.GET("/skills", cfg.SkillHandler.ListSkills)
			api.GET("/skills/:id/versions", cfg.SkillHandler.ListVersions)
			api.GET("/skills/:id/versions/:version", cfg.SkillHandler.GetVersion)
			api.GET("/versions/:id/readme", cfg.SkillHandler.GetReadme)
			api.GET("/download", cfg.SkillHandler.Download)
		}
	}

	protected := api.Group("")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.UserHandler != nil {
			protected.GET("/whoami", cfg.UserHandler.WhoAmI)
		}

		// Publish
		if cfg.PublishHandler != nil {
			protected.POST("/uploads", cfg.PublishHandler.Upload)
			protected.POST("/skills/publish", cfg.PublishHandler.Publish)
		}

		if cfg.SkillAdminHandler != nil {
			// Owner or moderator
			protected.POST("/skills/:id/tags", cfg.SkillAdminHandler.Retag)

			moderation := protected.Group("")
			admin := protected.Group("")
			if cfg.AuthMiddleware != nil {
				moderation.Use(cfg.AuthMiddleware.RequireRole(user.RoleModerator))
				admin.Use(cfg.AuthMiddleware.RequireRole(user.RoleAdmin))
			}
			moderation.POST("/skills/:id/approval", cfg.SkillAdminHandler.SetApproval)
			moderation.POST("/skills/:id/batch", cfg.SkillAdminHandler.SetBatch)
			moderation.POST("/skills/:id/moderation", cfg.SkillAdminHandler.SetModeration)
			moderation.POST("/skills/:id/duplicate", cfg.SkillAdminHandler.MarkDuplicate)
			admin.POST("/skills/:id/owner", cfg.SkillAdminHandler.TransferOwner)
			admin.DELETE("/skills/:id", cfg.SkillAdminHandler.Delete)
		}
	}

	return r
}
