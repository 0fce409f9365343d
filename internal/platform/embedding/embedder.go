package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/skillhub-backend/internal/observability"
)

const DefaultModel = "text-embedding-3-small"

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	metrics    *observability.Metrics
}

var _ Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(cfg OpenAIConfig, metrics *observability.Metrics) (*OpenAIEmbedder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("embedding: OPENAI_API_KEY required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		dimensions: cfg.Dimensions,
		metrics:    metrics,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		e.metrics.ObserveEmbedding(e.model, "error", time.Since(start))
		return nil, fmt.Errorf("embedding: create: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		e.metrics.ObserveEmbedding(e.model, "empty", time.Since(start))
		return nil, errors.New("embedding: empty response")
	}
	e.metrics.ObserveEmbedding(e.model, "success", time.Since(start))
	return resp.Data[0].Embedding, nil
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
