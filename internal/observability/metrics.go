package observability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/skillhub-backend/internal/platform/envutil"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	aggregateLatency   *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateRetries   *prometheus.CounterVec

	publishTotal      *prometheus.CounterVec
	searchTotal       *prometheus.CounterVec
	searchResults     prometheus.Histogram
	embeddingLatency  *prometheus.HistogramVec
	embeddingCache    *prometheus.CounterVec
	vectorSyncFailure *prometheus.CounterVec
	accountGate       *prometheus.CounterVec
	downloadsTotal    prometheus.Counter

	vectorIndexLatency *prometheus.HistogramVec
	providerBootstrap  *prometheus.CounterVec
	providerActive     *prometheus.GaugeVec

	pgStats *prometheus.GaugeVec
	redisUp prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics when METRICS_ENABLED is set.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("prometheus metrics enabled")
		}
	})
	return instance
}

// NewMetrics registers a fresh collector set on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillhub_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillhub_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skillhub_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		aggregateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillhub_aggregate_operation_duration_seconds",
			Help:    "Aggregate write latency by operation/status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		aggregateConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillhub_aggregate_conflicts_total",
			Help: "Aggregate writes rejected with a conflict.",
		}, []string{"operation"}),
		aggregateRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillhub_aggregate_retryable_total",
			Help: "Aggregate writes failed with a retryable error.",
		}, []string{"operation"}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillhub_publish_total",
			Help: "Publish attempts by outcome.",
		}, []string{"status"}),
		searchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillhub_search_total",
			Help: "Search requests by outcome.",
		}, []string{"status"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skillhub_search_results",
			Help:    "Hydrated results per search.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}),
		embeddingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillhub_embedding_request_duration_seconds",
			Help:    "Embedding provider latency by model/status.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"model", "status"}),
		embeddingCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillhub_embedding_cache_total",
			Help: "Query embedding cache lookups by backend/result.",
		}, []string{"backend", "result"}),
		vectorSyncFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillhub_vector_sync_failures_total",
			Help: "Vector index sync/delete failures after commit.",
		}, []string{"provider", "op"}),
		accountGate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillhub_account_gate_total",
			Help: "Account-age gate decisions.",
		}, []string{"provider", "result"}),
		downloadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillhub_downloads_total",
			Help: "Bundle downloads served.",
		}),
		vectorIndexLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillhub_vector_index_operation_duration_seconds",
			Help:    "Vector index call latency by provider/operation/status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"provider", "operation", "status"}),
		providerBootstrap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillhub_provider_bootstrap_total",
			Help: "Provider bootstrap attempts by kind/provider/status/code.",
		}, []string{"kind", "provider", "status", "code"}),
		providerActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "skillhub_provider_active",
			Help: "1 for the provider selected per kind.",
		}, []string{"kind", "provider"}),
		pgStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "skillhub_postgres_pool",
			Help: "database/sql pool stats.",
		}, []string{"stat"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skillhub_redis_up",
			Help: "1 when the last redis ping succeeded.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.publishTotal, m.searchTotal, m.searchResults,
		m.embeddingLatency, m.embeddingCache, m.vectorSyncFailure,
		m.accountGate, m.downloadsTotal,
		m.vectorIndexLatency, m.providerBootstrap, m.providerActive,
		m.pgStats, m.redisUp,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateLatency.WithLabelValues(op, status).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(op).Inc()
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.WithLabelValues(op).Inc()
}

func (m *Metrics) IncPublish(status string) {
	if m == nil {
		return
	}
	m.publishTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveSearch(status string, results int) {
	if m == nil {
		return
	}
	m.searchTotal.WithLabelValues(status).Inc()
	if status == "success" {
		m.searchResults.Observe(float64(results))
	}
}

func (m *Metrics) ObserveEmbedding(model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.embeddingLatency.WithLabelValues(model, status).Observe(dur.Seconds())
}

func (m *Metrics) IncEmbeddingCache(backend string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.embeddingCache.WithLabelValues(backend, result).Inc()
}

func (m *Metrics) IncVectorSyncFailure(provider, op string) {
	if m == nil {
		return
	}
	m.vectorSyncFailure.WithLabelValues(provider, op).Inc()
}

func (m *Metrics) IncAccountGate(provider, result string) {
	if m == nil {
		return
	}
	m.accountGate.WithLabelValues(strings.ToLower(provider), result).Inc()
}

func (m *Metrics) IncDownload() {
	if m == nil {
		return
	}
	m.downloadsTotal.Inc()
}

func (m *Metrics) ObserveVectorIndexOperation(provider, operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.vectorIndexLatency.WithLabelValues(provider, operation, status).Observe(dur.Seconds())
}

// ObserveProviderBootstrap records one provider selection; kind is "vector",
// "blob" or "embedding".
func (m *Metrics) ObserveProviderBootstrap(kind, provider, status, code string) {
	if m == nil {
		return
	}
	m.providerBootstrap.WithLabelValues(kind, provider, status, code).Inc()
}

func (m *Metrics) SetProviderActive(kind, provider string) {
	if m == nil {
		return
	}
	m.providerActive.DeletePartialMatch(prometheus.Labels{"kind": kind})
	m.providerActive.WithLabelValues(kind, provider).Set(1)
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.pgStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.pgStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.pgStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.pgStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.pgStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
			}
		}
	}()
}
