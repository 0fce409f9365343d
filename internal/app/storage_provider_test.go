package app

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/skillhub-backend/internal/data/repos/testutil"
	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/blob"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

func clearBlobEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BLOB_STORE_MODE", "S3_BUCKET", "GCS_BUCKET_NAME", "STORAGE_EMULATOR_HOST"} {
		t.Setenv(k, "")
	}
}

func TestResolveBlobStoreDefaultsToMemory(t *testing.T) {
	clearBlobEnv(t)

	store, err := resolveBlobStore(context.Background(), testutil.Logger(t), observability.NewMetrics())
	if err != nil {
		t.Fatalf("resolveBlobStore: %v", err)
	}
	if store.Name() != "memory" {
		t.Fatalf("store: want=memory got=%q", store.Name())
	}
}

func TestResolveBlobStoreConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want StorageProviderBootstrapErrorCode
	}{
		{name: "invalid mode", env: map[string]string{"BLOB_STORE_MODE": "ftp"}, want: StorageProviderBootstrapErrorInvalidMode},
		{name: "s3 without bucket", env: map[string]string{"BLOB_STORE_MODE": "s3"}, want: StorageProviderBootstrapErrorMissingBucket},
		{
			name: "emulator without host",
			env:  map[string]string{"BLOB_STORE_MODE": "gcs_emulator", "GCS_BUCKET_NAME": "skills"},
			want: StorageProviderBootstrapErrorMissingEmulatorHost,
		},
		{
			name: "emulator host without scheme",
			env:  map[string]string{"BLOB_STORE_MODE": "gcs_emulator", "GCS_BUCKET_NAME": "skills", "STORAGE_EMULATOR_HOST": "fake-gcs:4443"},
			want: StorageProviderBootstrapErrorInvalidEmulatorHost,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearBlobEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := resolveBlobStore(context.Background(), testutil.Logger(t), nil)
			var got *StorageProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StorageProviderBootstrapError, got=%T (%v)", err, err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
		})
	}
}

func TestResolveBlobStoreConnectFailed(t *testing.T) {
	clearBlobEnv(t)
	t.Setenv("BLOB_STORE_MODE", "s3")
	t.Setenv("S3_BUCKET", "skills")

	want := errors.New("dial tcp: connection refused")
	prev := openBlobStore
	openBlobStore = func(context.Context, *logger.Logger, blob.Config) (blob.Store, error) { return nil, want }
	t.Cleanup(func() { openBlobStore = prev })

	_, err := resolveBlobStore(context.Background(), testutil.Logger(t), nil)
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
	}
	if got.Code != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorConnectFailed, got.Code)
	}
	if got.Mode != "s3" {
		t.Fatalf("mode: want=s3 got=%q", got.Mode)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected wrapped cause")
	}
}
