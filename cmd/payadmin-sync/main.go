package main

import (
	"context"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/megasio/payadmin/internal/catalog"
	catalogdomain "github.com/megasio/payadmin/internal/catalog/domain"
	"github.com/megasio/payadmin/internal/clock"
	"github.com/megasio/payadmin/internal/config"
	"github.com/megasio/payadmin/internal/gateway"
	"github.com/megasio/payadmin/internal/lock"
	"github.com/megasio/payadmin/internal/logger"
	"github.com/megasio/payadmin/internal/migration"
	obsmetrics "github.com/megasio/payadmin/internal/observability/metrics"
	"github.com/megasio/payadmin/internal/paymentmethod"
	"github.com/megasio/payadmin/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// One-shot catalog sync, meant for cron.
func main() {
	var exitCode int

	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		obsmetrics.Module,
		migration.Module,

		gateway.Module,
		paymentmethod.Module,
		catalog.Module,

		fx.Invoke(func(lc fx.Lifecycle, sh fx.Shutdowner, svc catalogdomain.Service, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						result, err := svc.ReconcileAll(context.Background())
						if err != nil {
							log.Error("catalog sync failed", zap.Error(err))
							exitCode = 1
						}
						log.Info("catalog sync finished",
							zap.Int("fiat_created", result.Fiat.Created),
							zap.Int("fiat_updated", result.Fiat.Updated),
							zap.Int("fiat_errors", result.Fiat.Errors),
							zap.Int("crypto_created", result.Crypto.Created),
							zap.Int("crypto_updated", result.Crypto.Updated),
							zap.Int("crypto_errors", result.Crypto.Errors))
						_ = sh.Shutdown()
					}()
					return nil
				},
			})
		}),
	)
	app.Run()
	os.Exit(exitCode)
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
