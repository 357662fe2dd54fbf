package observability

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	otellog "go.opentelemetry.io/otel/log"
)

func TestRecordHelpers_NilMetricsAreNoops(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, nil, "GET", "/api/resolve", 200, time.Millisecond)
		RecordResolution(ctx, nil, "patient", "exact-id")
		RecordStrategyFailure(ctx, nil, "loose-name")
		RecordSourceFailure(ctx, nil, "lab-history")
		RecordCacheHit(ctx, nil, "patient")
		RecordCacheMiss(ctx, nil, "patient")
	})
}

func TestInitMetrics_OnNoopProvider(t *testing.T) {
	metrics, err := InitMetrics()
	assert.NoError(t, err)
	assert.NotPanics(t, func() {
		RecordResolution(context.Background(), metrics, "doctor", "loose-name")
	})
}

func TestOTelSeverity(t *testing.T) {
	assert.Equal(t, otellog.SeverityWarn, otelSeverity(zerolog.WarnLevel))
	assert.Equal(t, otellog.SeverityDebug, otelSeverity(zerolog.DebugLevel))
	assert.Equal(t, otellog.SeverityFatal, otelSeverity(zerolog.PanicLevel))
}

func TestLoggerFromContext_WithoutSpan(t *testing.T) {
	InitLogger("test", "production")
	logger := LoggerFromContext(context.Background())
	assert.NotNil(t, logger)
}
