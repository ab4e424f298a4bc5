package metrics

import (
	"context"
	"fmt"
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
}

// Metrics exposes application-level instruments.
type Metrics struct {
	catalogRecords    metric.Int64Counter
	settlementActions metric.Int64Counter
	gatewayCalls      metric.Int64Counter
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

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch protocol {
	case "http":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "grpc", "":
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported metrics exporter protocol %q", protocol)
	}
}

func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter("payadmin")

	catalogRecords, err := meter.Int64Counter("catalog_sync_records_total",
		metric.WithDescription("Catalog records reconciled, by branch and outcome"))
	if err != nil {
		return nil, err
	}
	settlementActions, err := meter.Int64Counter("settlement_actions_total",
		metric.WithDescription("Settlement approvals and rejections, by outcome"))
	if err != nil {
		return nil, err
	}
	gatewayCalls, err := meter.Int64Counter("gateway_calls_total",
		metric.WithDescription("Outbound gateway calls, by method and outcome"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		catalogRecords:    catalogRecords,
		settlementActions: settlementActions,
		gatewayCalls:      gatewayCalls,
	}, nil
}

func (m *Metrics) RecordCatalogRecord(ctx context.Context, branch, outcome string) {
	if m == nil {
		return
	}
	m.catalogRecords.Add(ctx, 1, metric.WithAttributes(
		attribute.String("branch", branch),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordSettlementAction(ctx context.Context, action, outcome string) {
	if m == nil {
		return
	}
	m.settlementActions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordGatewayCall(ctx context.Context, method, outcome string) {
	if m == nil {
		return
	}
	m.gatewayCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
}
