package services

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/observability"
)

// AggregatorService fans out to record sources and merges what comes back
type AggregatorService struct {
	timeout time.Duration
	metrics *observability.Metrics
}

// NewAggregatorService creates an aggregator whose sources default to timeout
func NewAggregatorService(timeout time.Duration, metrics *observability.Metrics) *AggregatorService {
	return &AggregatorService{timeout: timeout, metrics: metrics}
}

// Aggregate queries every source concurrently and waits for all of them.
// Failed sources contribute nothing and are listed in FailedSources. Records
// keep source order then per-source order, deduplicated by source:id.
func (s *AggregatorService) Aggregate(ctx context.Context, entity entities.CanonicalRecord, sources []providers.RecordSource) *entities.AggregatedView {
	ctx, span := observability.StartSpan(ctx, "aggregator.Aggregate",
		attribute.String("entity.kind", string(entity.Kind)),
		attribute.Int("sources", len(sources)),
	)
	defer span.End()

	results := make([][]entities.SourceRecord, len(sources))
	failed := make([]bool, len(sources))

	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(i int, source providers.RecordSource) {
			defer wg.Done()
			records, err := s.fetch(ctx, entity, source)
			if err != nil {
				failed[i] = true
				observability.LoggerFromContext(ctx).Warn().
					Err(err).
					Str("source", source.Name()).
					Str("entity_id", entity.ID).
					Msg("record source failed")
				observability.RecordSourceFailure(ctx, s.metrics, source.Name())
				return
			}
			results[i] = records
		}(i, source)
	}
	wg.Wait()

	view := &entities.AggregatedView{
		Records:    entities.MergeSourceRecords(results...),
		Confidence: entities.ConfidenceHigh,
	}
	for i, source := range sources {
		if failed[i] {
			view.FailedSources = append(view.FailedSources, source.Name())
		}
	}

	span.SetAttributes(
		attribute.Int("records", len(view.Records)),
		attribute.Int("failed_sources", len(view.FailedSources)),
	)
	return view
}

func (s *AggregatorService) fetch(ctx context.Context, entity entities.CanonicalRecord, source providers.RecordSource) ([]entities.SourceRecord, error) {
	ctx, span := observability.StartSpan(ctx, "aggregator.source."+source.Name())
	defer span.End()

	timeout := s.timeout
	if ts, ok := source.(providers.TimeoutSource); ok && ts.Timeout() > 0 {
		timeout = ts.Timeout()
	}

	records, err := callBounded(ctx, timeout, func(ctx context.Context) ([]entities.SourceRecord, error) {
		return source.Fetch(ctx, entity)
	})
	observability.RecordError(span, err)
	return records, err
}
