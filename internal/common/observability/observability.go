// internal/common/observability/observability.go
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
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	prom "github.com/prometheus/client_golang/prometheus"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	meter          otelmetric.Meter
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
}

type options struct {
	registerer  prom.Registerer
	tracing     bool
	sampleRatio float64
	processors  []sdktrace.SpanProcessor
}

type Option func(*options)

// WithRegisterer sends the OpenTelemetry metrics to reg instead of the
// default prometheus registry.
func WithRegisterer(reg prom.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTracing enables the trace SDK with a parent-based ratio sampler.
func WithTracing(ratio float64) Option {
	return func(o *options) {
		o.tracing = true
		o.sampleRatio = ratio
	}
}

// WithSpanProcessor attaches a span processor; implies tracing.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.tracing = true
		if o.sampleRatio == 0 {
			o.sampleRatio = 1
		}
		o.processors = append(o.processors, p)
	}
}

func New(serviceName string, opts ...Option) *Observability {
	o := &options{registerer: prom.DefaultRegisterer}
	for _, opt := range opts {
		opt(o)
	}

	obs := &Observability{tracer: noop.NewTracerProvider().Tracer(serviceName)}

	if o.tracing {
		res := resource.NewSchemaless(attribute.String("service.name", serviceName))
		tpOpts := []sdktrace.TracerProviderOption{
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.sampleRatio))),
		}
		for _, p := range o.processors {
			tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
		}
		obs.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
		otel.SetTracerProvider(obs.tracerProvider)
		obs.tracer = obs.tracerProvider.Tracer(serviceName)
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(o.registerer))
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return obs
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

	obs.meterProvider = provider
	obs.meter = meter
	obs.jobCounter = jobCounter
	obs.jobDuration = jobDuration
	return obs
}

// StartSpan starts a span under ctx. With tracing disabled the span is a no-op.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
