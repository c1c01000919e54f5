package metrics

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	sequenceAllocations metric.Int64Counter
	billsHeld           metric.Int64Counter
	billsSettled        metric.Int64Counter
	fallbackServed      metric.Int64Counter
	loginsDenied        metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down meter provider")
			return provider.Shutdown(ctx)
		},
	})

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "tillpoint"
	}
	meter := provider.Meter(name)

	sequenceAllocations, err := meter.Int64Counter("tillpoint_sequence_allocations_total")
	if err != nil {
		return nil, err
	}
	billsHeld, err := meter.Int64Counter("tillpoint_bills_held_total")
	if err != nil {
		return nil, err
	}
	billsSettled, err := meter.Int64Counter("tillpoint_bills_settled_total")
	if err != nil {
		return nil, err
	}
	fallbackServed, err := meter.Int64Counter("tillpoint_fallback_served_total")
	if err != nil {
		return nil, err
	}
	loginsDenied, err := meter.Int64Counter("tillpoint_logins_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		sequenceAllocations: sequenceAllocations,
		billsHeld:           billsHeld,
		billsSettled:        billsSettled,
		fallbackServed:      fallbackServed,
		loginsDenied:        loginsDenied,
	}, nil
}

// RecordAllocation counts issued bill numbers.
func (m *Metrics) RecordAllocation(ctx context.Context, counterCode string) {
	if m == nil {
		return
	}
	m.sequenceAllocations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("counter_code", strings.TrimSpace(counterCode)),
	))
}

// RecordHold counts bills placed on hold.
func (m *Metrics) RecordHold(ctx context.Context, locationCode string) {
	if m == nil {
		return
	}
	m.billsHeld.Add(ctx, 1, metric.WithAttributes(
		attribute.String("location_code", strings.TrimSpace(locationCode)),
	))
}

// RecordSettle counts paid bills.
func (m *Metrics) RecordSettle(ctx context.Context, locationCode string) {
	if m == nil {
		return
	}
	m.billsSettled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("location_code", strings.TrimSpace(locationCode)),
	))
}

// RecordFallback counts operations served from the in-memory mirror.
func (m *Metrics) RecordFallback(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.fallbackServed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordLoginDenied counts rejected logins.
func (m *Metrics) RecordLoginDenied(ctx context.Context) {
	if m == nil {
		return
	}
	m.loginsDenied.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	default:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	}
}
