package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/blob"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

var openBlobStore = blob.Open

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "blob store bootstrap failed"
	}
	return fmt.Sprintf(
		"blob store bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBlobStore reads BLOB_STORE_MODE and opens the matching store.
func resolveBlobStore(ctx context.Context, log *logger.Logger, metrics *observability.Metrics) (blob.Store, error) {
	cfg, err := blob.ResolveConfigFromEnv()
	if err != nil {
		classified := classifyStorageProviderBootstrapError(cfg, err)
		code := storageProviderBootstrapErrorCode(classified)
		metrics.ObserveProviderBootstrap("blob", string(cfg.Mode), "error", string(code))
		log.Error(
			"Blob store provider selection failed",
			"mode", cfg.Mode,
			"emulator_host", cfg.GCS.EmulatorHost,
			"error_code", code,
			"error", classified,
		)
		return nil, classified
	}

	log.Info(
		"Selecting blob store provider",
		"mode", cfg.Mode,
		"s3_bucket", cfg.S3.Bucket,
		"gcs_bucket", cfg.GCS.Bucket,
		"emulator_host", cfg.GCS.EmulatorHost,
	)

	store, err := openBlobStore(ctx, log, cfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(cfg, err)
		code := storageProviderBootstrapErrorCode(classified)
		metrics.ObserveProviderBootstrap("blob", string(cfg.Mode), "error", string(code))
		log.Error(
			"Blob store provider bootstrap failed",
			"mode", cfg.Mode,
			"emulator_host", cfg.GCS.EmulatorHost,
			"error_code", code,
			"error", classified,
		)
		return nil, classified
	}
	metrics.ObserveProviderBootstrap("blob", string(cfg.Mode), "success", "none")
	metrics.SetProviderActive("blob", string(cfg.Mode))
	return store, nil
}

func classifyStorageProviderBootstrapError(cfg blob.Config, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *blob.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case blob.ConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case blob.ConfigErrorMissingBucket:
			code = StorageProviderBootstrapErrorMissingBucket
		case blob.ConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case blob.ConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
	}
	mode := string(cfg.Mode)
	if cfgErr != nil && cfgErr.Mode != "" {
		mode = cfgErr.Mode
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         mode,
		EmulatorHost: cfg.GCS.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
