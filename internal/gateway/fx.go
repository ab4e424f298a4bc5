package gateway

import (
	"github.com/megasio/payadmin/internal/clock"
	"github.com/megasio/payadmin/internal/config"
	obsmetrics "github.com/megasio/payadmin/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideClient(cfg config.Config, clk clock.Clock, log *zap.Logger, metrics *obsmetrics.Metrics) *Client {
	return NewClient(Params{
		Cfg:     cfg.Sopay,
		Clock:   clk,
		Log:     log,
		Metrics: metrics,
	})
}

var Module = fx.Module("gateway",
	fx.Provide(provideClient),
)
