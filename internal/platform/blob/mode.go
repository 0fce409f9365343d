package blob

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type Mode string

const (
	ModeMemory      Mode = "memory"
	ModeS3          Mode = "s3"
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
)

type Config struct {
	Mode Mode
	S3   S3Config
	GCS  GCSConfig
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Mode  string
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid blob store config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf("invalid BLOB_STORE_MODE=%q (allowed: memory, s3, gcs, gcs_emulator)", e.Mode)
	case ConfigErrorMissingBucket:
		return fmt.Sprintf("BLOB_STORE_MODE=%q requires %s", e.Mode, e.Value)
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("BLOB_STORE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ModeGCSEmulator)
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.Value)
	default:
		return "invalid blob store config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveConfigFromEnv reads BLOB_STORE_MODE and the settings of the chosen
// backend. An unset mode with STORAGE_EMULATOR_HOST present selects the GCS
// emulator.
func ResolveConfigFromEnv() (Config, error) {
	env := func(k string) string { return strings.TrimSpace(os.Getenv(k)) }

	cfg := Config{
		S3: S3Config{
			Endpoint:        env("S3_ENDPOINT"),
			Region:          env("S3_REGION"),
			Bucket:          env("S3_BUCKET"),
			AccessKeyID:     env("S3_ACCESS_KEY_ID"),
			SecretAccessKey: env("S3_SECRET_ACCESS_KEY"),
			UsePathStyle:    strings.EqualFold(env("S3_USE_PATH_STYLE"), "true"),
		},
		GCS: GCSConfig{
			Bucket:       env("GCS_BUCKET_NAME"),
			EmulatorHost: env("STORAGE_EMULATOR_HOST"),
		},
	}
	raw := env("BLOB_STORE_MODE")
	switch mode := Mode(strings.ToLower(raw)); mode {
	case "":
		if cfg.GCS.EmulatorHost != "" {
			cfg.Mode = ModeGCSEmulator
		} else {
			cfg.Mode = ModeMemory
		}
	case ModeMemory, ModeS3, ModeGCS, ModeGCSEmulator:
		cfg.Mode = mode
	default:
		return cfg, &ConfigError{Code: ConfigErrorInvalidMode, Mode: raw}
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	if err := ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	switch cfg.Mode {
	case ModeMemory:
		return nil
	case ModeS3:
		if cfg.S3.Bucket == "" {
			return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(cfg.Mode), Value: "S3_BUCKET"}
		}
		return nil
	case ModeGCS, ModeGCSEmulator:
		if cfg.GCS.Bucket == "" {
			return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(cfg.Mode), Value: "GCS_BUCKET_NAME"}
		}
		if cfg.Mode == ModeGCS {
			return nil
		}
		if cfg.GCS.EmulatorHost == "" {
			return &ConfigError{Code: ConfigErrorMissingEmulatorHost, Mode: string(cfg.Mode)}
		}
		u, err := url.Parse(cfg.GCS.EmulatorHost)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ConfigError{Code: ConfigErrorInvalidEmulatorHost, Mode: string(cfg.Mode), Value: cfg.GCS.EmulatorHost, Cause: err}
		}
		return nil
	default:
		return &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}
