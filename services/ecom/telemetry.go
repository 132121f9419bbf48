package main

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func initTracer(cfg *Config) (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OtlpEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(tp)

	return tp, nil
}

func initMetrics(cfg *Config) (*sdkmetric.MeterProvider, error) {
	ctx := context.Background()

	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.OtlpEndpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp, nil
}

// ecomMetrics counts routing outcomes. A nil receiver disables all counters.
type ecomMetrics struct {
	forwards      metric.Int64Counter
	timeouts      metric.Int64Counter
	deliveries    metric.Int64Counter
	cancellations metric.Int64Counter
}

func newEcomMetrics(meter metric.Meter) (*ecomMetrics, error) {
	m := &ecomMetrics{}
	var err error

	if m.forwards, err = meter.Int64Counter("ecom.forwards"); err != nil {
		return nil, err
	}
	if m.timeouts, err = meter.Int64Counter("ecom.loss_timeouts"); err != nil {
		return nil, err
	}
	if m.deliveries, err = meter.Int64Counter("ecom.deliveries"); err != nil {
		return nil, err
	}
	if m.cancellations, err = meter.Int64Counter("ecom.cancellations"); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *ecomMetrics) IncForwards() {
	if m == nil {
		return
	}
	m.forwards.Add(context.Background(), 1)
}

func (m *ecomMetrics) IncTimeouts() {
	if m == nil {
		return
	}
	m.timeouts.Add(context.Background(), 1)
}

func (m *ecomMetrics) IncDeliveries() {
	if m == nil {
		return
	}
	m.deliveries.Add(context.Background(), 1)
}

func (m *ecomMetrics) IncCancellations() {
	if m == nil {
		return
	}
	m.cancellations.Add(context.Background(), 1)
}
