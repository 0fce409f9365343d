package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/platform/qdrant"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
)

// qdrantBackend is the part of qdrant.Index used during bootstrap.
type qdrantBackend interface {
	vectorindex.Index
	EnsureCollection(ctx context.Context) error
}

var newQdrantIndex = func(log *logger.Logger, cfg qdrant.Config, client *http.Client) (qdrantBackend, error) {
	return qdrant.NewIndex(log, cfg, client)
}

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider     VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingQdrantURL    VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL    VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantVector VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorQdrantConfigFailed  VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorConnectFailed       VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorCollectionMismatch  VectorProviderBootstrapErrorCode = "collection_mismatch"
	VectorProviderBootstrapErrorProviderInitFailed  VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorIndex builds the search index selected by VECTOR_PROVIDER. The
// returned index is wrapped with latency metrics.
func resolveVectorIndex(
	ctx context.Context,
	log *logger.Logger,
	cfg Config,
	db *gorm.DB,
	httpClient *http.Client,
	metrics *observability.Metrics,
) (vectorindex.Index, error) {
	provider := cfg.VectorProvider
	fail := func(err error) (vectorindex.Index, error) {
		code := vectorProviderBootstrapErrorCode(err)
		metrics.ObserveProviderBootstrap("vector", provider, "error", string(code))
		log.Error("Vector index bootstrap failed", "provider", provider, "error_code", code, "error", err)
		return nil, err
	}

	pcfg, err := resolveVectorProviderConfig(provider, cfg.EmbeddingDim)
	if err != nil {
		return fail(classifyVectorProviderBootstrapError(provider, err))
	}
	provider = string(pcfg.Provider)

	var idx vectorindex.Index
	switch pcfg.Provider {
	case VectorProviderPGVector:
		log.Info("Selecting vector index", "provider", provider, "embedding_dim", cfg.EmbeddingDim)
		idx = vectorindex.NewPGVector(db, log)
	case VectorProviderMemory:
		log.Warn("Selecting in-process vector index; contents are rebuilt on start", "provider", provider)
		idx = vectorindex.NewMemory()
	case VectorProviderQdrant:
		log.Info(
			"Selecting vector index",
			"provider", provider,
			"qdrant_url", pcfg.Qdrant.URL,
			"qdrant_collection", pcfg.Qdrant.Collection,
			"qdrant_vector_dim", pcfg.Qdrant.VectorDim,
		)
		q, err := newQdrantIndex(log, pcfg.Qdrant, httpClient)
		if err != nil {
			return fail(classifyVectorProviderBootstrapError(provider, err))
		}
		if err := q.EnsureCollection(ctx); err != nil {
			return fail(classifyVectorProviderBootstrapError(provider, err))
		}
		idx = q
	}

	metrics.ObserveProviderBootstrap("vector", provider, "success", "none")
	metrics.SetProviderActive("vector", provider)
	return instrumentIndex(idx, metrics), nil
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		return err
	}
	code := VectorProviderBootstrapErrorProviderInitFailed

	var cfgErr *VectorProviderConfigError
	var qcfgErr *qdrant.ConfigError
	var opErr *qdrant.OperationError
	switch {
	case errors.As(err, &cfgErr):
		switch cfgErr.Code {
		case VectorProviderConfigErrorInvalidProvider:
			code = VectorProviderBootstrapErrorInvalidProvider
		case VectorProviderConfigErrorMissingQdrantURL:
			code = VectorProviderBootstrapErrorMissingQdrantURL
		case VectorProviderConfigErrorInvalidQdrantURL:
			code = VectorProviderBootstrapErrorInvalidQdrantURL
		case VectorProviderConfigErrorInvalidQdrantVector:
			code = VectorProviderBootstrapErrorInvalidQdrantVector
		default:
			code = VectorProviderBootstrapErrorQdrantConfigFailed
		}
	case errors.As(err, &qcfgErr):
		code = VectorProviderBootstrapErrorQdrantConfigFailed
	case errors.As(err, &opErr):
		switch opErr.Code {
		case qdrant.OperationErrorTransportFailed, qdrant.OperationErrorTimeout:
			code = VectorProviderBootstrapErrorConnectFailed
		case qdrant.OperationErrorValidation:
			code = VectorProviderBootstrapErrorCollectionMismatch
		}
	}
	return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorProviderInitFailed
}
