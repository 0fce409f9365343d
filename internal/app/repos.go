package app

import (
	"gorm.io/gorm"

	auditrepo "github.com/yungbote/skillhub-backend/internal/data/repos/audit"
	skillrepo "github.com/yungbote/skillhub-backend/internal/data/repos/skills"
	userrepo "github.com/yungbote/skillhub-backend/internal/data/repos/user"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type Repos struct {
	User           userrepo.UserRepo
	Skill          skillrepo.SkillRepo
	SkillVersion   skillrepo.SkillVersionRepo
	SkillEmbedding skillrepo.SkillEmbeddingRepo
	Audit          auditrepo.AuditLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           userrepo.NewUserRepo(db, log),
		Skill:          skillrepo.NewSkillRepo(db, log),
		SkillVersion:   skillrepo.NewSkillVersionRepo(db, log),
		SkillEmbedding: skillrepo.NewSkillEmbeddingRepo(db, log),
		Audit:          auditrepo.NewAuditLogRepo(db, log),
	}
}
