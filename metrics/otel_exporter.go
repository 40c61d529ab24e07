package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/marcelsud/webhook-relay/forward"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards.
// It records forward attempts and outcomes in process and, when a Collector is set,
// also exposes the shared Redis counters as gauges.
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector

	// OTel meters and instruments
	meter           metric.Meter
	attempts        metric.Int64Counter
	attemptDuration metric.Float64Histogram
	outcomes        metric.Int64Counter
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format.
// collector may be nil.
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"webhook-relay",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}
	if collector != nil {
		if err := oe.registerGauges(); err != nil {
			return nil, fmt.Errorf("registering gauges: %w", err)
		}
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.attempts, err = oe.meter.Int64Counter(
		"relay.forward.attempts",
		metric.WithDescription("Number of HTTP attempts made against the SOAR endpoint"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return fmt.Errorf("creating attempts counter: %w", err)
	}

	oe.attemptDuration, err = oe.meter.Float64Histogram(
		"relay.forward.attempt.duration",
		metric.WithDescription("Duration of a single forward attempt"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("creating attempt duration histogram: %w", err)
	}

	oe.outcomes, err = oe.meter.Int64Counter(
		"relay.forward.outcomes",
		metric.WithDescription("Number of forwards by terminal status"),
		metric.WithUnit("{forwards}"),
	)
	if err != nil {
		return fmt.Errorf("creating outcomes counter: %w", err)
	}

	return nil
}

// registerGauges exposes the Redis counters, which are shared by every instance
func (oe *OTelExporter) registerGauges() error {
	_, err := oe.meter.Int64ObservableGauge(
		"relay.cluster.outcomes",
		metric.WithDescription("Forwards by terminal status across all instances"),
		metric.WithUnit("{forwards}"),
		metric.WithInt64Callback(oe.observeOutcomes),
	)
	if err != nil {
		return fmt.Errorf("creating outcomes gauge: %w", err)
	}

	_, err = oe.meter.Int64ObservableGauge(
		"relay.cluster.attempts",
		metric.WithDescription("Attempts by kind across all instances"),
		metric.WithUnit("{attempts}"),
		metric.WithInt64Callback(oe.observeAttempts),
	)
	if err != nil {
		return fmt.Errorf("creating attempts gauge: %w", err)
	}

	_, err = oe.meter.Int64ObservableGauge(
		"relay.cluster.throughput",
		metric.WithDescription("Payloads delivered over time window"),
		metric.WithUnit("{forwards}"),
		metric.WithInt64Callback(oe.observeThroughput),
	)
	if err != nil {
		return fmt.Errorf("creating throughput gauge: %w", err)
	}

	_, err = oe.meter.Int64ObservableGauge(
		"relay.cluster.instances",
		metric.WithDescription("Number of relay instances with a live heartbeat"),
		metric.WithUnit("{instances}"),
		metric.WithInt64Callback(oe.observeInstances),
	)
	if err != nil {
		return fmt.Errorf("creating instances gauge: %w", err)
	}

	return nil
}

// RecordAttempt implements forward.Recorder
func (oe *OTelExporter) RecordAttempt(ctx context.Context, attempt forward.Attempt) {
	attrs := metric.WithAttributes(attribute.String("attempt.kind", attempt.Kind.String()))
	oe.attempts.Add(ctx, 1, attrs)
	oe.attemptDuration.Record(ctx, float64(attempt.Duration)/float64(time.Millisecond), attrs)
}

// RecordOutcome implements forward.Recorder
func (oe *OTelExporter) RecordOutcome(ctx context.Context, outcome forward.Outcome) {
	oe.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome.status", outcome.Status.String()),
	))
}

func (oe *OTelExporter) observeOutcomes(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.GetOutcomeCounts(ctx)
	if err != nil {
		return err
	}

	for status, count := range counts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("outcome.status", status),
		))
	}

	return nil
}

func (oe *OTelExporter) observeAttempts(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.GetAttemptCounts(ctx)
	if err != nil {
		return err
	}

	for kind, count := range counts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("attempt.kind", kind),
		))
	}

	return nil
}

// observeThroughput is a callback that reports throughput metrics
func (oe *OTelExporter) observeThroughput(ctx context.Context, observer metric.Int64Observer) error {
	throughput, err := oe.collector.GetThroughput(ctx)
	if err != nil {
		return err
	}

	observer.Observe(throughput.LastMinute, metric.WithAttributes(
		attribute.String("time.window", "1m"),
	))
	observer.Observe(throughput.LastFiveMinutes, metric.WithAttributes(
		attribute.String("time.window", "5m"),
	))
	observer.Observe(throughput.LastFifteenMinutes, metric.WithAttributes(
		attribute.String("time.window", "15m"),
	))

	return nil
}

func (oe *OTelExporter) observeInstances(ctx context.Context, observer metric.Int64Observer) error {
	instances, err := oe.collector.GetActiveInstances(ctx)
	if err != nil {
		return err
	}

	observer.Observe(int64(len(instances)))
	return nil
}

// ServeHTTP returns the Prometheus handler for this exporter's registry
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
