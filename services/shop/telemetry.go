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

// shopMetrics counts the stock-affecting outcomes. A nil receiver disables
// all counters, which keeps tests free of telemetry setup.
type shopMetrics struct {
	reservations    metric.Int64Counter
	rejections      metric.Int64Counter
	deliveries      metric.Int64Counter
	losses          metric.Int64Counter
	localSales      metric.Int64Counter
	localRejections metric.Int64Counter
}

func newShopMetrics(meter metric.Meter) (*shopMetrics, error) {
	m := &shopMetrics{}
	var err error

	if m.reservations, err = meter.Int64Counter("shop.reservations"); err != nil {
		return nil, err
	}
	if m.rejections, err = meter.Int64Counter("shop.rejections"); err != nil {
		return nil, err
	}
	if m.deliveries, err = meter.Int64Counter("shop.deliveries"); err != nil {
		return nil, err
	}
	if m.losses, err = meter.Int64Counter("shop.losses"); err != nil {
		return nil, err
	}
	if m.localSales, err = meter.Int64Counter("shop.local_sales"); err != nil {
		return nil, err
	}
	if m.localRejections, err = meter.Int64Counter("shop.local_rejections"); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *shopMetrics) IncReservations() {
	if m == nil {
		return
	}
	m.reservations.Add(context.Background(), 1)
}

func (m *shopMetrics) IncRejections() {
	if m == nil {
		return
	}
	m.rejections.Add(context.Background(), 1)
}

func (m *shopMetrics) IncDeliveries() {
	if m == nil {
		return
	}
	m.deliveries.Add(context.Background(), 1)
}

func (m *shopMetrics) IncLosses() {
	if m == nil {
		return
	}
	m.losses.Add(context.Background(), 1)
}

func (m *shopMetrics) IncLocalSales() {
	if m == nil {
		return
	}
	m.localSales.Add(context.Background(), 1)
}

func (m *shopMetrics) IncLocalRejections() {
	if m == nil {
		return
	}
	m.localRejections.Add(context.Background(), 1)
}
