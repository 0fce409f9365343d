package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

// VectorCache stores embeddings by key.
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32, ttl time.Duration) error
	Name() string
}

type MemoryCache struct {
	c *gocache.Cache
}

func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	vec, ok := v.([]float32)
	return vec, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, vec []float32, ttl time.Duration) error {
	m.c.Set(key, append([]float32(nil), vec...), ttl)
	return nil
}

func (m *MemoryCache) Name() string { return "memory" }

type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisCache(rdb *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "skillhub:embed:"
	}
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := decodeVector(raw)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, vec []float32, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.prefix+key, encodeVector(vec), ttl).Err()
}

func (r *RedisCache) Name() string { return "redis" }

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("embedding cache: corrupt entry (%d bytes)", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, nil
}

// CachedEmbedder memoizes another Embedder. Cache failures are logged and
// never fail the call.
type CachedEmbedder struct {
	inner   Embedder
	cache   VectorCache
	ttl     time.Duration
	log     *logger.Logger
	metrics *observability.Metrics
}

var _ Embedder = (*CachedEmbedder)(nil)

func NewCachedEmbedder(inner Embedder, cache VectorCache, ttl time.Duration, log *logger.Logger, metrics *observability.Metrics) *CachedEmbedder {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedEmbedder{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		log:     log.With("component", "CachedEmbedder", "cache", cache.Name()),
		metrics: metrics,
	}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(c.inner.ModelName(), text)
	vec, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("embedding cache get failed", "error", err)
	}
	if ok && len(vec) > 0 {
		c.metrics.IncEmbeddingCache(c.cache.Name(), true)
		return vec, nil
	}
	c.metrics.IncEmbeddingCache(c.cache.Name(), false)

	vec, err = c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, vec, c.ttl); err != nil {
		c.log.Warn("embedding cache set failed", "error", err)
	}
	return vec, nil
}

func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

// CacheKey is stable across processes for the same model and text.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return model + ":" + hex.EncodeToString(sum[:])
}
