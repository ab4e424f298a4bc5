package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/megasio/payadmin/internal/catalog"
	"github.com/megasio/payadmin/internal/clock"
	"github.com/megasio/payadmin/internal/config"
	"github.com/megasio/payadmin/internal/gateway"
	"github.com/megasio/payadmin/internal/lock"
	"github.com/megasio/payadmin/internal/logger"
	"github.com/megasio/payadmin/internal/migration"
	obsmetrics "github.com/megasio/payadmin/internal/observability/metrics"
	"github.com/megasio/payadmin/internal/paymentmethod"
	"github.com/megasio/payadmin/internal/server"
	"github.com/megasio/payadmin/internal/settlement"
	"github.com/megasio/payadmin/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		obsmetrics.Module,
		migration.Module,

		// Functional domains
		gateway.Module,
		paymentmethod.Module,
		catalog.Module,
		settlement.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
