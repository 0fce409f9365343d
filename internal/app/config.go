package app

import (
	"strings"
	"time"

	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/utils"
)

type Config struct {
	Port         string
	ServiceName  string
	Environment  string
	JWTSecretKey string

	VectorProvider string
	EmbeddingDim   int

	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIEmbeddingModel string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EmbedCacheTTL time.Duration

	GitLabURL        string
	GitHubAPIURL     string
	AccountMinAge    time.Duration
	AccountLookupTTL time.Duration

	AllowedOrigins []string
	ReindexOnStart bool
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:         utils.GetEnv("PORT", "8080", log),
		ServiceName:  utils.GetEnv("OTEL_SERVICE_NAME", "skillhub-backend", log),
		Environment:  utils.GetEnv("LOG_MODE", "development", log),
		JWTSecretKey: utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),

		VectorProvider: strings.ToLower(strings.TrimSpace(utils.GetEnv("VECTOR_PROVIDER", string(VectorProviderPGVector), log))),
		EmbeddingDim:   utils.GetEnvAsInt("EMBEDDING_DIM", 1536, log),

		OpenAIAPIKey:         utils.GetEnv("OPENAI_API_KEY", "", log),
		OpenAIBaseURL:        utils.GetEnv("OPENAI_BASE_URL", "", log),
		OpenAIEmbeddingModel: utils.GetEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small", log),

		RedisAddr:     utils.GetEnv("REDIS_ADDR", "", log),
		RedisPassword: utils.GetEnv("REDIS_PASSWORD", "", log),
		RedisDB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
		EmbedCacheTTL: utils.GetEnvAsDuration("EMBED_CACHE_TTL_SECONDS", 3600, time.Second, log),

		GitLabURL:        utils.GetEnv("AUTH_GITLAB_URL", "https://gitlab.com", log),
		GitHubAPIURL:     utils.GetEnv("AUTH_GITHUB_API_URL", "https://api.github.com", log),
		AccountMinAge:    utils.GetEnvAsDuration("ACCOUNT_MIN_AGE_DAYS", 7, 24*time.Hour, log),
		AccountLookupTTL: utils.GetEnvAsDuration("ACCOUNT_LOOKUP_TTL_HOURS", 24, time.Hour, log),

		AllowedOrigins: utils.GetEnvAsList("CORS_ALLOWED_ORIGINS", log),
		ReindexOnStart: utils.GetEnvAsBool("REINDEX_ON_START", false, log),
	}
}
