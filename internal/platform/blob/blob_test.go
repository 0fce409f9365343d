package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Put(ctx, "k", []byte("hello"), "text/plain"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "hello" {
		t.Fatalf("Get: got=%q err=%v", got, err)
	}
	got[0] = 'X'
	again, _ := s.Get(ctx, "k")
	if string(again) != "hello" {
		t.Fatalf("Get returned shared buffer")
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got=%v", err)
	}
}

func TestResolveConfigFromEnvDefaultsToMemory(t *testing.T) {
	t.Setenv("BLOB_STORE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Mode != ModeMemory {
		t.Fatalf("mode: want=%q got=%q", ModeMemory, cfg.Mode)
	}
	if cfg.S3.Region != "us-east-1" {
		t.Fatalf("region default: got=%q", cfg.S3.Region)
	}
}

func TestResolveConfigFromEnvEmulatorFallback(t *testing.T) {
	t.Setenv("BLOB_STORE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")
	t.Setenv("GCS_BUCKET_NAME", "bundles")
	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Mode != ModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", ModeGCSEmulator, cfg.Mode)
	}
}

func TestResolveConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		code ConfigErrorCode
	}{
		{"invalid mode", map[string]string{"BLOB_STORE_MODE": "ftp"}, ConfigErrorInvalidMode},
		{"s3 without bucket", map[string]string{"BLOB_STORE_MODE": "s3", "S3_BUCKET": ""}, ConfigErrorMissingBucket},
		{"gcs without bucket", map[string]string{"BLOB_STORE_MODE": "gcs", "GCS_BUCKET_NAME": ""}, ConfigErrorMissingBucket},
		{"emulator without host", map[string]string{"BLOB_STORE_MODE": "gcs_emulator", "GCS_BUCKET_NAME": "b", "STORAGE_EMULATOR_HOST": ""}, ConfigErrorMissingEmulatorHost},
		{"emulator bad host", map[string]string{"BLOB_STORE_MODE": "gcs_emulator", "GCS_BUCKET_NAME": "b", "STORAGE_EMULATOR_HOST": "fake-gcs"}, ConfigErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := ResolveConfigFromEnv()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got=%T (%v)", err, err)
			}
			if cfgErr.Code != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, cfgErr.Code)
			}
		})
	}
}

// fakeS3 serves path-style object requests from a map.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/bundles/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3StoreAgainstPathStyleEndpoint(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	s, err := NewS3Store(ctx, S3Config{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		Bucket:          "bundles",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}

	if err := s.Put(ctx, "skills/a.md", []byte("# hi"), "text/markdown"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "skills/a.md")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "# hi" {
		t.Fatalf("Get: got=%q", got)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got=%v", err)
	}
	if err := s.Delete(ctx, "skills/a.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(fake.objects) != 0 {
		t.Fatalf("objects after delete: %v", fake.objects)
	}
}
