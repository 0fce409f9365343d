package aggregates

import (
	"time"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/observability"
)

// WriteObservation describes one finished aggregate write. Code is empty on
// success.
type WriteObservation struct {
	Op       string
	Code     domainagg.ErrorCode
	Duration time.Duration
}

// Status is the metric label for the write outcome.
func (o WriteObservation) Status() string {
	if o.Code == "" {
		return "success"
	}
	return string(o.Code)
}

// Hooks receives every aggregate write after its transaction ends.
type Hooks interface {
	ObserveWrite(obs WriteObservation)
}

type noopHooks struct{}

func (noopHooks) ObserveWrite(WriteObservation) {}

type metricsHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks reports writes as prometheus latency, conflict and
// retryable series.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{metrics: metrics}
}

func (h metricsHooks) ObserveWrite(obs WriteObservation) {
	h.metrics.ObserveAggregateOperation(obs.Op, obs.Status(), obs.Duration)
	switch obs.Code {
	case domainagg.CodeConflict:
		h.metrics.IncAggregateConflict(obs.Op)
	case domainagg.CodeRetryable:
		h.metrics.IncAggregateRetry(obs.Op)
	}
}
