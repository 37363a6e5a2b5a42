package usecase

import (
	"context"
	"time"
)

// MetricsRecorder receives scoring outcomes. The OpenTelemetry implementation
// lives in infrastructure/metrics.
type MetricsRecorder interface {
	RecordAssessment(ctx context.Context, policy, band string, probability float64, elapsed time.Duration)
	RecordFailure(ctx context.Context, kind string)
}

type nopMetrics struct{}

func (nopMetrics) RecordAssessment(context.Context, string, string, float64, time.Duration) {}
func (nopMetrics) RecordFailure(context.Context, string)                                    {}
