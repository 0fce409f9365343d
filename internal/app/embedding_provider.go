package app

import (
	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/embedding"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type Embedders struct {
	// Publish embeds bundle text. It is never cached.
	Publish embedding.Embedder
	// Query embeds search queries through the query cache.
	Query embedding.Embedder
}

// resolveEmbedders picks OpenAI when OPENAI_API_KEY is set and the local hash
// embedder otherwise. Query embeddings are cached in redis when a client is
// available.
func resolveEmbedders(log *logger.Logger, cfg Config, clients Clients, metrics *observability.Metrics) (Embedders, error) {
	var base embedding.Embedder
	provider := "hash"
	if cfg.OpenAIAPIKey != "" {
		oa, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIEmbeddingModel,
			Dimensions: cfg.EmbeddingDim,
		}, metrics)
		if err != nil {
			metrics.ObserveProviderBootstrap("embedding", "openai", "error", "provider_init_failed")
			return Embedders{}, err
		}
		base, provider = oa, "openai"
	} else {
		log.Warn("OPENAI_API_KEY not set; using local hash embeddings", "embedding_dim", cfg.EmbeddingDim)
		base = embedding.HashEmbedder{Dim: cfg.EmbeddingDim}
	}

	var cache embedding.VectorCache
	if clients.Redis != nil {
		cache = embedding.NewRedisCache(clients.Redis, "skillhub:embed:")
	} else {
		cache = embedding.NewMemoryCache(cfg.EmbedCacheTTL)
	}
	log.Info("Embedding provider selected", "provider", provider, "model", base.ModelName(), "query_cache", cache.Name())

	metrics.ObserveProviderBootstrap("embedding", provider, "success", "none")
	metrics.SetProviderActive("embedding", provider)
	return Embedders{
		Publish: base,
		Query:   embedding.NewCachedEmbedder(base, cache, cfg.EmbedCacheTTL, log, metrics),
	}, nil
}
