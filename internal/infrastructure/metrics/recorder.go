package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/bibhealth/strokerisk"

// Recorder reports scoring outcomes as OpenTelemetry instruments.
type Recorder struct {
	assessments metric.Int64Counter
	failures    metric.Int64Counter
	probability metric.Float64Histogram
	duration    metric.Float64Histogram
}

// NewRecorder creates the instruments on a meter of provider.
func NewRecorder(provider metric.MeterProvider) (*Recorder, error) {
	meter := provider.Meter(meterName)

	assessments, err := meter.Int64Counter("strokerisk.assessments",
		metric.WithDescription("Scored records by banding policy and band."),
		metric.WithUnit("{assessment}"))
	if err != nil {
		return nil, fmt.Errorf("create assessments counter: %w", err)
	}

	failures, err := meter.Int64Counter("strokerisk.assessment.failures",
		metric.WithDescription("Requests that did not produce a score, by failure kind."),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, fmt.Errorf("create failures counter: %w", err)
	}

	probability, err := meter.Float64Histogram("strokerisk.probability",
		metric.WithDescription("Distribution of predicted stroke probabilities."),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1))
	if err != nil {
		return nil, fmt.Errorf("create probability histogram: %w", err)
	}

	duration, err := meter.Float64Histogram("strokerisk.assessment.duration",
		metric.WithDescription("Time spent validating, scoring and recording a request."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &Recorder{
		assessments: assessments,
		failures:    failures,
		probability: probability,
		duration:    duration,
	}, nil
}

func (r *Recorder) RecordAssessment(ctx context.Context, policy, band string, probability float64, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("policy", policy),
		attribute.String("band", band),
	)
	r.assessments.Add(ctx, 1, attrs)
	r.probability.Record(ctx, probability, metric.WithAttributes(attribute.String("policy", policy)))
	r.duration.Record(ctx, elapsed.Seconds())
}

func (r *Recorder) RecordFailure(ctx context.Context, kind string) {
	r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
