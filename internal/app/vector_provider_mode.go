package app

import (
	"errors"
	"fmt"

	"github.com/yungbote/skillhub-backend/internal/platform/qdrant"
)

type VectorProvider string

const (
	VectorProviderPGVector VectorProvider = "pgvector"
	VectorProviderQdrant   VectorProvider = "qdrant"
	VectorProviderMemory   VectorProvider = "memory"
)

type VectorProviderConfigErrorCode string

const (
	VectorProviderConfigErrorInvalidProvider      VectorProviderConfigErrorCode = "invalid_provider"
	VectorProviderConfigErrorMissingQdrantURL     VectorProviderConfigErrorCode = "missing_qdrant_url"
	VectorProviderConfigErrorInvalidQdrantURL     VectorProviderConfigErrorCode = "invalid_qdrant_url"
	VectorProviderConfigErrorInvalidQdrantVector  VectorProviderConfigErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderConfigErrorUnknownQdrantFailure VectorProviderConfigErrorCode = "qdrant_config_error"
)

type VectorProviderConfigError struct {
	Code     VectorProviderConfigErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderConfigError) Error() string {
	if e == nil {
		return "invalid vector provider config"
	}
	return fmt.Sprintf("invalid vector provider config (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

type VectorProviderConfig struct {
	Provider VectorProvider
	Qdrant   qdrant.Config
}

// resolveVectorProviderConfig validates VECTOR_PROVIDER and, for qdrant, the
// QDRANT_* settings. An empty provider selects pgvector.
func resolveVectorProviderConfig(provider string, embeddingDim int) (VectorProviderConfig, error) {
	switch VectorProvider(provider) {
	case "", VectorProviderPGVector:
		return VectorProviderConfig{Provider: VectorProviderPGVector}, nil
	case VectorProviderMemory:
		return VectorProviderConfig{Provider: VectorProviderMemory}, nil
	case VectorProviderQdrant:
		qcfg, err := qdrant.ResolveConfigFromEnv(embeddingDim)
		if err != nil {
			return VectorProviderConfig{}, mapVectorProviderConfigError(err)
		}
		return VectorProviderConfig{Provider: VectorProviderQdrant, Qdrant: qcfg}, nil
	default:
		return VectorProviderConfig{}, &VectorProviderConfigError{
			Code:     VectorProviderConfigErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported VECTOR_PROVIDER %q (allowed: pgvector, qdrant, memory)", provider),
		}
	}
}

func mapVectorProviderConfigError(err error) error {
	code := VectorProviderConfigErrorUnknownQdrantFailure
	var qerr *qdrant.ConfigError
	if errors.As(err, &qerr) {
		switch qerr.Code {
		case qdrant.ConfigErrorMissingURL:
			code = VectorProviderConfigErrorMissingQdrantURL
		case qdrant.ConfigErrorInvalidURL:
			code = VectorProviderConfigErrorInvalidQdrantURL
		case qdrant.ConfigErrorInvalidVectorDim:
			code = VectorProviderConfigErrorInvalidQdrantVector
		}
	}
	return &VectorProviderConfigError{
		Code:     code,
		Provider: string(VectorProviderQdrant),
		Cause:    err,
	}
}
