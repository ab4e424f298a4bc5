package metrics

import (
	"github.com/megasio/payadmin/internal/config"
	"go.uber.org/fx"
)

func NewConfig(appCfg config.Config) Config {
	return Config{
		Enabled:          appCfg.Metrics.Enabled,
		ExporterEndpoint: appCfg.Metrics.Endpoint,
		ExporterProtocol: appCfg.Metrics.Exporter,
	}
}

var Module = fx.Module("observability.metrics",
	fx.Provide(NewConfig),
	fx.Provide(NewProvider),
	fx.Provide(NewMetrics),
)
