package app

import (
	"errors"
	"testing"
)

func TestResolveVectorProviderConfigDefaultsToPGVector(t *testing.T) {
	for _, raw := range []string{"", "pgvector"} {
		cfg, err := resolveVectorProviderConfig(raw, 1536)
		if err != nil {
			t.Fatalf("resolveVectorProviderConfig(%q): %v", raw, err)
		}
		if cfg.Provider != VectorProviderPGVector {
			t.Fatalf("provider(%q): want=%q got=%q", raw, VectorProviderPGVector, cfg.Provider)
		}
	}
}

func TestResolveVectorProviderConfigForQdrant(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_COLLECTION", "skills")
	t.Setenv("QDRANT_VECTOR_DIM", "")

	cfg, err := resolveVectorProviderConfig("qdrant", 1536)
	if err != nil {
		t.Fatalf("resolveVectorProviderConfig: %v", err)
	}
	if cfg.Provider != VectorProviderQdrant {
		t.Fatalf("provider: want=%q got=%q", VectorProviderQdrant, cfg.Provider)
	}
	if cfg.Qdrant.Collection != "skills" {
		t.Fatalf("qdrant.Collection: want=%q got=%q", "skills", cfg.Qdrant.Collection)
	}
	if cfg.Qdrant.VectorDim != 1536 {
		t.Fatalf("qdrant.VectorDim: want=%d got=%d", 1536, cfg.Qdrant.VectorDim)
	}
}

func TestResolveVectorProviderConfigErrors(t *testing.T) {
	cases := []struct {
		name     string
		provider string
		url      string
		dim      string
		want     VectorProviderConfigErrorCode
	}{
		{name: "unknown provider", provider: "pinecone", want: VectorProviderConfigErrorInvalidProvider},
		{name: "missing url", provider: "qdrant", want: VectorProviderConfigErrorMissingQdrantURL},
		{name: "relative url", provider: "qdrant", url: "qdrant:6333/x", want: VectorProviderConfigErrorInvalidQdrantURL},
		{name: "bad dim", provider: "qdrant", url: "http://qdrant:6333", dim: "wide", want: VectorProviderConfigErrorInvalidQdrantVector},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("QDRANT_URL", tc.url)
			t.Setenv("QDRANT_VECTOR_DIM", tc.dim)

			_, err := resolveVectorProviderConfig(tc.provider, 1536)
			var got *VectorProviderConfigError
			if !errors.As(err, &got) {
				t.Fatalf("expected VectorProviderConfigError, got=%T (%v)", err, err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
		})
	}
}
