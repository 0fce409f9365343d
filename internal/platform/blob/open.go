package blob

import (
	"context"

	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

// Open builds the Store selected by cfg.Mode.
func Open(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	var (
		store Store
		err   error
	)
	switch cfg.Mode {
	case ModeS3:
		store, err = NewS3Store(ctx, cfg.S3)
	case ModeGCS, ModeGCSEmulator:
		store, err = NewGCSStore(ctx, cfg.GCS, cfg.Mode == ModeGCSEmulator)
	default:
		store = NewMemoryStore()
	}
	if err != nil {
		return nil, err
	}
	log.Info("Blob store initialized", "mode", cfg.Mode, "store", store.Name())
	return store, nil
}
