package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
)

type instrumentedIndex struct {
	inner   vectorindex.Index
	metrics *observability.Metrics
}

func instrumentIndex(inner vectorindex.Index, metrics *observability.Metrics) vectorindex.Index {
	if inner == nil || metrics == nil {
		return inner
	}
	return &instrumentedIndex{inner: inner, metrics: metrics}
}

func (s *instrumentedIndex) Name() string { return s.inner.Name() }

func (s *instrumentedIndex) Query(ctx context.Context, vector []float32, filter vectorindex.Filter, limit int) ([]vectorindex.Match, error) {
	start := time.Now()
	out, err := s.inner.Query(ctx, vector, filter, limit)
	s.observe("query", err, time.Since(start))
	return out, err
}

func (s *instrumentedIndex) Upsert(ctx context.Context, records []vectorindex.Record) error {
	start := time.Now()
	err := s.inner.Upsert(ctx, records)
	s.observe("upsert", err, time.Since(start))
	return err
}

func (s *instrumentedIndex) Delete(ctx context.Context, ids []uuid.UUID) error {
	start := time.Now()
	err := s.inner.Delete(ctx, ids)
	s.observe("delete", err, time.Since(start))
	return err
}

func (s *instrumentedIndex) observe(operation string, err error, dur time.Duration) {
	s.metrics.ObserveVectorIndexOperation(s.inner.Name(), operation, vectorindex.ErrorStatus(err), dur)
}
