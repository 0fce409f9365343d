package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/skillhub-backend/internal/http/handlers"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Skill      *httpH.SkillHandler
	Publish    *httpH.PublishHandler
	SkillAdmin *httpH.SkillAdminHandler
	User       *httpH.UserHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			pinger = sqlDB
		}
	}
	return Handlers{
		Health:     httpH.NewHealthHandler(pinger),
		Skill:      httpH.NewSkillHandler(log, services.SkillQuery, services.Search),
		Publish:    httpH.NewPublishHandler(log, services.Publish, services.Upload),
		SkillAdmin: httpH.NewSkillAdminHandler(log, services.SkillAdmin),
		User:       httpH.NewUserHandler(services.User),
	}
}
