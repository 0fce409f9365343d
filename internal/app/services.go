package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/skillhub-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/blob"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
	"github.com/yungbote/skillhub-backend/internal/services"
)

type Services struct {
	SkillAggregate domainagg.SkillAggregate

	Auth       services.AuthService
	User       services.UserService
	AccountAge services.AccountAgeService
	Upload     services.UploadService
	Publish    services.PublishService
	Search     services.SearchService
	SkillQuery services.SkillQueryService
	SkillAdmin services.SkillAdminService
	IndexSync  services.IndexSyncService
}

type serviceInputs struct {
	DB        *gorm.DB
	Repos     Repos
	Clients   Clients
	Blobs     blob.Store
	Index     vectorindex.Index
	Embedders Embedders
	Metrics   *observability.Metrics
}

func wireServices(log *logger.Logger, cfg Config, in serviceInputs) Services {
	log.Info("Wiring services...")

	agg := aggregates.NewSkillAggregate(aggregates.SkillAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    in.DB,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(in.Metrics),
		},
		Skills:     in.Repos.Skill,
		Versions:   in.Repos.SkillVersion,
		Embeddings: in.Repos.SkillEmbedding,
		Users:      in.Repos.User,
		Audit:      in.Repos.Audit,
	})

	accountAge := services.NewAccountAgeService(services.AccountAgeDeps{
		Log:     log,
		Users:   in.Repos.User,
		Lookup:  in.Clients.AccountLookup,
		Metrics: in.Metrics,
		MinAge:  cfg.AccountMinAge,
		TTL:     cfg.AccountLookupTTL,
	})

	return Services{
		SkillAggregate: agg,

		Auth:       services.NewAuthService(log, in.Repos.User, cfg.JWTSecretKey),
		User:       services.NewUserService(log, in.Repos.User),
		AccountAge: accountAge,
		Upload:     services.NewUploadService(log, in.Blobs),
		Publish: services.NewPublishService(services.PublishDeps{
			Log:       log,
			Aggregate: agg,
			Blobs:     in.Blobs,
			Embedder:  in.Embedders.Publish,
			Index:     in.Index,
			Gate:      accountAge,
			Metrics:   in.Metrics,
		}),
		Search: services.NewSearchService(services.SearchDeps{
			Log:        log,
			Embedder:   in.Embedders.Query,
			Index:      in.Index,
			Skills:     in.Repos.Skill,
			Versions:   in.Repos.SkillVersion,
			Embeddings: in.Repos.SkillEmbedding,
			Metrics:    in.Metrics,
		}),
		SkillQuery: services.NewSkillQueryService(services.SkillQueryDeps{
			Log:      log,
			Skills:   in.Repos.Skill,
			Versions: in.Repos.SkillVersion,
			Users:    in.Repos.User,
			Blobs:    in.Blobs,
			Metrics:  in.Metrics,
		}),
		SkillAdmin: services.NewSkillAdminService(services.SkillAdminDeps{
			Log:       log,
			Aggregate: agg,
			Index:     in.Index,
			Metrics:   in.Metrics,
		}),
		IndexSync: services.NewIndexSyncService(log, in.Repos.SkillEmbedding, in.Index),
	}
}
