package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability carries the OpenTelemetry meter and tracer providers.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider tracerShutdowner
	meter          otelmetric.Meter
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	notifications  otelmetric.Int64Counter
}

// New wires the Prometheus metric exporter and, when jaegerEndpoint is set,
// a Jaeger trace exporter.
func New(serviceName, jaegerEndpoint string) *Observability {
	o := &Observability{}

	if endpoint := jaegerEndpoint; endpoint != "" {
		tp, err := newTracerProvider(serviceName, endpoint)
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			o.tracerProvider = tp
		}
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	notifications, _ := meter.Int64Counter(
		"notifications.sent",
		otelmetric.WithDescription("Number of push notifications sent per event type"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.jobCounter = jobCounter
	o.jobDuration = jobDuration
	o.notifications = notifications
	return o
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordNotifications adds the outcome of one fan-out.
func (o *Observability) RecordNotifications(ctx context.Context, eventType string, success, failure int) {
	if o.notifications == nil {
		return
	}
	o.notifications.Add(ctx, int64(success), otelmetric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", "success"),
	))
	o.notifications.Add(ctx, int64(failure), otelmetric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", "failure"),
	))
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
